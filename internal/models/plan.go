package models

// Plan is a static catalog entry for a shared-subscription offering.
// The label doubles as the keyboard button text and the selection key.
type Plan struct {
  Label        string `json:"label"`
  Price        int64  `json:"price"`
  DurationDays int    `json:"duration_days"`
}

type Catalog struct {
  labels []string
  plans  map[string]Plan
}

func NewCatalog(plans ...Plan) *Catalog {
  catalog := &Catalog{
    labels: make([]string, 0, len(plans)),
    plans:  make(map[string]Plan, len(plans)),
  }

  for _, plan := range plans {
    if _, exists := catalog.plans[plan.Label]; exists {
      continue
    }
    catalog.labels = append(catalog.labels, plan.Label)
    catalog.plans[plan.Label] = plan
  }

  return catalog
}

func (c *Catalog) Find(label string) (Plan, bool) {
  plan, ok := c.plans[label]
  return plan, ok
}

// Labels returns plan labels in catalog order.
func (c *Catalog) Labels() []string {
  labels := make([]string, len(c.labels))
  copy(labels, c.labels)

  return labels
}

func (c *Catalog) Plans() []Plan {
  plans := make([]Plan, 0, len(c.labels))

  for _, label := range c.labels {
    plans = append(plans, c.plans[label])
  }

  return plans
}

func DefaultCatalog() *Catalog {
  return NewCatalog(
    Plan{Label: "🎧 Spotify", Price: 50, DurationDays: 30},
    Plan{Label: "🎬 Netflix", Price: 60, DurationDays: 30},
    Plan{Label: "📦 Prime Video", Price: 40, DurationDays: 30},
    Plan{Label: "▶️ YouTube Premium", Price: 45, DurationDays: 30},
    Plan{Label: "🎧 Spotify + 🎬 Netflix", Price: 100, DurationDays: 30},
  )
}
