package metrics

type InstrumentType string

const (
	InstrumentTypeCounter   InstrumentType = "counter"
	InstrumentTypeUpDown    InstrumentType = "updown"
	InstrumentTypeHistogram InstrumentType = "histogram"
)

func (t InstrumentType) String() string { return string(t) }

// InstrumentKey identifies an instrument within a provider.
type InstrumentKey struct {
	Type InstrumentType
	Name string
}

func NewInstrumentKey(typ InstrumentType, name string) InstrumentKey {
	return InstrumentKey{Type: typ, Name: name}
}

// String renders the key as "typ:name".
func (k InstrumentKey) String() string {
	return k.Type.String() + ":" + k.Name
}
