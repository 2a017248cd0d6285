package metrics

import "github.com/san-kum/rigidsim/internal/scene"

// Contacts is the mean number of body and ground contacts per step.
type Contacts struct {
	name    string
	sum     float64
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{
		name: "contacts",
	}
}

func (c *Contacts) Name() string {
	return c.name
}

func (c *Contacts) Observe(_ *scene.Scene, st scene.StepStats) {
	c.sum += float64(st.Contacts + st.GroundContacts)
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}
