package kw41z

import "context"

// Handler receives completion notifications. Its methods are only called
// from Process (or Run), never from the interrupt handler.
type Handler interface {
	// TransmitDone reports the outcome of Transmit. err is nil on success,
	// ErrNoAck or ErrChannelAccessFailure otherwise. framePending is the
	// frame-pending bit of the received ACK.
	TransmitDone(f *Frame, framePending bool, err error)
	// ReceiveDone hands over a received frame. f is reused after the call returns.
	ReceiveDone(f *Frame, err error)
	// EnergyScanDone reports the highest energy reading of a scan in dBm.
	EnergyScanDone(maxEnergy int8)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields ignore the event.
type HandlerFuncs struct {
	OnTransmitDone   func(f *Frame, framePending bool, err error)
	OnReceiveDone    func(f *Frame, err error)
	OnEnergyScanDone func(maxEnergy int8)
}

func (h HandlerFuncs) TransmitDone(f *Frame, framePending bool, err error) {
	if h.OnTransmitDone != nil {
		h.OnTransmitDone(f, framePending, err)
	}
}

func (h HandlerFuncs) ReceiveDone(f *Frame, err error) {
	if h.OnReceiveDone != nil {
		h.OnReceiveDone(f, err)
	}
}

func (h HandlerFuncs) EnergyScanDone(maxEnergy int8) {
	if h.OnEnergyScanDone != nil {
		h.OnEnergyScanDone(maxEnergy)
	}
}

type nopHandler struct{}

func (nopHandler) TransmitDone(*Frame, bool, error) {}
func (nopHandler) ReceiveDone(*Frame, error)        {}
func (nopHandler) EnergyScanDone(int8)              {}

type txResult struct {
	frame        *Frame
	framePending bool
	err          error
}

// mailbox is a single-slot channel where a new value replaces an undelivered
// one. It has exactly one producer (the interrupt handler, serialized by the
// device lock) and one consumer (the dispatcher).
type mailbox[T any] struct {
	ch chan T
}

func newMailbox[T any]() mailbox[T] {
	return mailbox[T]{ch: make(chan T, 1)}
}

// post stores v and reports whether an undelivered value was overwritten.
func (m mailbox[T]) post(v T) (overwritten bool) {
	select {
	case <-m.ch:
		overwritten = true
	default:
	}
	m.ch <- v
	return overwritten
}

func (m mailbox[T]) take() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Call with lock held.
func (d *Device) postTransmit(r txResult) {
	d.post(d.txDone.post(r))
}

// Call with lock held.
func (d *Device) postReceive(f Frame) {
	d.post(d.rxDone.post(f))
}

// Call with lock held.
func (d *Device) postEnergyScan(maxED int8) {
	d.post(d.edDone.post(maxED))
}

func (d *Device) post(overwritten bool) {
	if overwritten {
		d.dropped.Add(1)
		globalLogger.Debug("Completion overwritten before dispatch")
	}
	select {
	case d.notify <- struct{}{}:
	default:
		// Wake-up already pending
	}
}

// Process delivers pending completions to the configured Handler, each kind
// at most once. It must not be called concurrently with itself or Run.
func (d *Device) Process() {
	h := d.config.Handler

	if r, ok := d.txDone.take(); ok {
		h.TransmitDone(r.frame, r.framePending, r.err)
	}

	if f, ok := d.rxDone.take(); ok {
		d.rxDelivered = f
		h.ReceiveDone(&d.rxDelivered, nil)
	}

	if maxED, ok := d.edDone.take(); ok {
		h.EnergyScanDone(maxED)
	}
}

// Run calls Process whenever the interrupt handler posts a completion, until
// ctx is cancelled or the device is closed. It returns nil after Close.
func (d *Device) Run(ctx context.Context) error {
	for {
		d.Process()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.done:
			return nil
		case <-d.notify:
		}
	}
}
