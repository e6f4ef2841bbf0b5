package table

import "context"

// Transform is a processing stage applied to a record set. Implementations
// must not mutate the input table: they either return it unchanged or
// return a freshly built one.
type Transform interface {
	Name() string
	Apply(ctx context.Context, t *Table) (*Table, error)
}

// Chain composes a sequence of Transforms.
type Chain struct {
	steps []Transform
}

func NewChain() *Chain { return &Chain{} }

func (c *Chain) Add(t Transform) *Chain {
	c.steps = append(c.steps, t)
	return c
}

func (c *Chain) Run(ctx context.Context, t *Table) (*Table, error) {
	var err error
	cur := t
	for _, step := range c.steps {
		cur, err = step.Apply(ctx, cur)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
