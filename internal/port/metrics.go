package port

// CreatorMetrics observes the generated-id write path.
type CreatorMetrics interface {
	Attempt(sequence string)
	Conflict(sequence string)
	Exhausted(sequence string)
	Created(sequence string)
}

type NopCreatorMetrics struct{}

func (NopCreatorMetrics) Attempt(string)   {}
func (NopCreatorMetrics) Conflict(string)  {}
func (NopCreatorMetrics) Exhausted(string) {}
func (NopCreatorMetrics) Created(string)   {}
