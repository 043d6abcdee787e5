package sdkclient

// EventKind discriminates the cost-accounting side-channel events the SDK
// client emits (spec.md §4.5 step 6, §9 design note: "Event emitter...
// maps to a typed channel or a direct method call on an interface").
type EventKind int

const (
	EventExecuteTransaction EventKind = iota
	EventExecuteQuery
)

// Event carries everything the HBAR limit service and the metrics pipeline
// need to retrieve the transaction record and post-hoc charge HBAR.
type Event struct {
	Kind            EventKind
	TransactionID   string
	OperatorAccount string
	ConstructorName string
	CallerAddress   string
	CostTinybars    int64
}

// EventSink receives SDK client events. A direct interface method call,
// not an untyped pub/sub bus, per spec.md §9.
type EventSink interface {
	OnSDKEvent(Event)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) OnSDKEvent(e Event) { f(e) }
