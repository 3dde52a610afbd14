package gpu

import (
	"time"

	"github.com/gogpu/wgpu/hal"
)

const (
	// pacerPollInterval is the sleep between completion polls.
	pacerPollInterval = 100 * time.Microsecond

	// pacerWaitTimeout bounds the wait for one submission. After it the
	// pacer waits for the whole device instead.
	pacerWaitTimeout = 5 * time.Second
)

// framePacer bounds the number of submitted but incomplete frames.
//
// Each slot remembers the submission index of a frame and the command buffer
// it used. Before a slot is reused, the pacer waits for that submission to
// complete and frees its command buffer. With n slots, at most n frames are
// ever in flight, and newer frames keep executing while the pacer waits.
type framePacer struct {
	device  hal.Device
	queue   hal.Queue
	slots   []frameSlot
	next    int
	waits   uint64
	timeout time.Duration
}

type frameSlot struct {
	index uint64
	cmd   hal.CommandBuffer
}

func newFramePacer(device hal.Device, queue hal.Queue, latency int) *framePacer {
	if latency < 1 {
		latency = 1
	}
	return &framePacer{
		device:  device,
		queue:   queue,
		slots:   make([]frameSlot, latency),
		timeout: pacerWaitTimeout,
	}
}

// begin makes the next slot available, blocking until the frame previously
// submitted from it has completed.
func (p *framePacer) begin() error {
	s := &p.slots[p.next]
	if s.index != 0 && s.index > p.queue.PollCompleted() {
		p.waits++
		slogger().Debug("frame pacer waiting", "submission", s.index, "in_flight", p.inFlight())
		if err := p.waitFor(s.index); err != nil {
			return err
		}
	}
	if s.cmd != nil {
		p.device.FreeCommandBuffer(s.cmd)
		s.cmd = nil
	}
	return nil
}

// waitFor polls the queue until submission index has completed. hal exposes
// no per-submission fence, so after p.timeout it falls back to waiting for
// the device to go idle.
func (p *framePacer) waitFor(index uint64) error {
	deadline := time.Now().Add(p.timeout)
	for p.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			slogger().Warn("frame pacer timed out, waiting for device idle", "submission", index, "timeout", p.timeout)
			return p.device.WaitIdle()
		}
		time.Sleep(pacerPollInterval)
	}
	return nil
}

// submitted records the submission made for the slot opened by begin.
func (p *framePacer) submitted(index uint64, cmd hal.CommandBuffer) {
	p.slots[p.next] = frameSlot{index: index, cmd: cmd}
	p.next = (p.next + 1) % len(p.slots)
}

// inFlight reports how many recorded submissions have not completed.
func (p *framePacer) inFlight() int {
	done := p.queue.PollCompleted()
	n := 0
	for _, s := range p.slots {
		if s.index != 0 && s.index > done {
			n++
		}
	}
	return n
}

// drain waits for all frames and frees their command buffers.
func (p *framePacer) drain() {
	if p.inFlight() > 0 {
		if err := p.device.WaitIdle(); err != nil {
			slogger().Warn("frame pacer drain", "err", err)
		}
	}
	for i := range p.slots {
		if p.slots[i].cmd != nil {
			p.device.FreeCommandBuffer(p.slots[i].cmd)
		}
		p.slots[i] = frameSlot{}
	}
	p.next = 0
}
