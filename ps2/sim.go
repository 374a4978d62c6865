package ps2

import "sync"

// SimPorts is an in-memory Ports implementation used by tests and by
// callers that want to drive the controller without real hardware —
// the same role tcell's simulation.go SimulationScreen plays for a
// terminal Screen. Queued bytes are delivered to ReadData/ReadStatus in
// FIFO order; WriteData/WriteStatus append to outbound logs, and
// Writes exposes the data-port log to tests.
type SimPorts struct {
	mu         sync.Mutex
	data       []byte
	status     byte
	writes     []byte
	statuses   []byte
	respond    func(cmd byte) []byte
	cmdRespond func(cmd byte) []byte
}

// SetResponder installs a function that is consulted on every
// WriteData call: its return value is appended to the output queue,
// simulating a device that replies to each command byte it receives.
// This lets tests exercise multi-command handshakes (Init sequences)
// without pre-loading replies that an earlier FlushOutput would
// wrongly drain.
func (s *SimPorts) SetResponder(f func(cmd byte) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond = f
}

// SetCommandResponder is SetResponder's counterpart for controller
// commands sent via WriteStatus (e.g. CMD_READ_CTRL), for tests that
// need to script a controller-level reply rather than a device ack.
func (s *SimPorts) SetCommandResponder(f func(cmd byte) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmdRespond = f
}

// NewSimPorts returns an empty simulated port pair with output-empty
// status.
func NewSimPorts() *SimPorts {
	return &SimPorts{}
}

// Enqueue appends bytes that will be returned by subsequent ReadData
// calls, setting StatusOutputFull until they are drained.
func (s *SimPorts) Enqueue(bs ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, bs...)
	if len(s.data) > 0 {
		s.status |= StatusOutputFull
	}
}

// EnqueueAux is like Enqueue but also marks the bytes as aux-sourced
// (StatusAuxData) for as long as they remain queued. Since SimPorts
// only tracks a single status byte, aux framing applies to the whole
// queue; tests that need to interleave keyboard and aux bytes should
// use two SimPorts-backed controllers.
func (s *SimPorts) EnqueueAux(bs ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, bs...)
	if len(s.data) > 0 {
		s.status |= StatusOutputFull | StatusAuxData
	}
}

func (s *SimPorts) ReadStatus() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SimPorts) ReadData() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return 0
	}
	b := s.data[0]
	s.data = s.data[1:]
	if len(s.data) == 0 {
		s.status &^= StatusOutputFull | StatusAuxData
	}
	return b
}

func (s *SimPorts) WriteStatus(b byte) {
	s.mu.Lock()
	cmdRespond := s.cmdRespond
	s.statuses = append(s.statuses, b)
	s.mu.Unlock()

	if cmdRespond == nil {
		return
	}
	reply := cmdRespond(b)
	if len(reply) == 0 {
		return
	}
	s.mu.Lock()
	s.data = append(s.data, reply...)
	s.status |= StatusOutputFull
	s.mu.Unlock()
}

func (s *SimPorts) WriteData(b byte) {
	s.mu.Lock()
	respond := s.respond
	s.writes = append(s.writes, b)
	s.mu.Unlock()

	if respond == nil {
		return
	}
	reply := respond(b)
	if len(reply) == 0 {
		return
	}
	s.mu.Lock()
	s.data = append(s.data, reply...)
	s.status |= StatusOutputFull
	s.mu.Unlock()
}

// Writes returns the bytes written to the data port so far, for test
// assertions.
func (s *SimPorts) Writes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.writes))
	copy(out, s.writes)
	return out
}
