package sacn

//Sink turns the final channel data of an output port into light.
//The data slice passed to SetData is only valid during the call.
type Sink interface {
	Start(port int)
	Stop(port int)
	SetData(port int, data []byte)
}

//NopSink discards everything
type NopSink struct{}

func (NopSink) Start(int)           {}
func (NopSink) Stop(int)            {}
func (NopSink) SetData(int, []byte) {}

//MultiSink forwards every call to all of its sinks in order
type MultiSink []Sink

//Start calls Start on every sink
func (m MultiSink) Start(port int) {
	for _, s := range m {
		s.Start(port)
	}
}

//Stop calls Stop on every sink
func (m MultiSink) Stop(port int) {
	for _, s := range m {
		s.Stop(port)
	}
}

//SetData calls SetData on every sink
func (m MultiSink) SetData(port int, data []byte) {
	for _, s := range m {
		s.SetData(port, data)
	}
}
