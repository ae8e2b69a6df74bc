package main

import (
	"encoding/binary"
	"math/rand"
	"sync/atomic"

	osal "github.com/hq-platform/go-osal"
)

// sensorReading is the fixed-size queue item: a simulated sensor sample.
type sensorReading struct {
	Timestamp   uint32 // TimeMS at sampling
	SensorID    uint16
	Temperature int16  // 0.1 °C units
	Humidity    uint16 // 0.1 % units
}

const readingSize = 12 // 4 + 2 + 2 + 2, padded to a word

func (r *sensorReading) marshal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], r.Timestamp)
	binary.LittleEndian.PutUint16(buf[4:6], r.SensorID)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(r.Temperature))
	binary.LittleEndian.PutUint16(buf[8:10], r.Humidity)
	buf[10] = 0
	buf[11] = 0
}

func (r *sensorReading) unmarshal(buf []byte) {
	r.Timestamp = binary.LittleEndian.Uint32(buf[0:4])
	r.SensorID = binary.LittleEndian.Uint16(buf[4:6])
	r.Temperature = int16(binary.LittleEndian.Uint16(buf[6:8]))
	r.Humidity = binary.LittleEndian.Uint16(buf[8:10])
}

// pipeline wires the demo scenario: a producer task simulating sensor
// samples, a consumer task draining the queue, a monitor task gated by a
// binary semaphore, and a status timer that gives the semaphore
// periodically.
type pipeline struct {
	cfg Config

	dataQueue  *osal.Queue
	monitorSem *osal.BinSem
	statusTim  *osal.Timer

	producer *osal.Task
	consumer *osal.Task
	monitor  *osal.Task

	produced  atomic.Uint32
	processed atomic.Uint32
	dropped   atomic.Uint32
	expiries  atomic.Uint32
	quitting  atomic.Bool
}

func newPipeline(cfg Config) (*pipeline, error) {
	p := &pipeline{cfg: cfg}

	var err error
	if p.dataQueue, err = osal.NewQueue("sensor_data", cfg.Queue.Capacity, readingSize); err != nil {
		return nil, err
	}
	if p.monitorSem, err = osal.NewBinSem("monitor", osal.SemEmpty); err != nil {
		return nil, err
	}
	p.statusTim, err = osal.NewTimer("status", cfg.Status.PeriodMS, true, p.onStatusTimer, osal.TimerConfig{Context: p})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *pipeline) start() error {
	taskCfg := osal.TaskConfig{StackSize: osal.DefaultStackSize, Priority: 1}

	var err error
	if p.producer, err = osal.CreateTask("producer", p.producerTask, nil, taskCfg); err != nil {
		return err
	}
	if p.consumer, err = osal.CreateTask("consumer", p.consumerTask, nil, taskCfg); err != nil {
		return err
	}
	if p.monitor, err = osal.CreateTask("monitor", p.monitorTask, nil, taskCfg); err != nil {
		return err
	}
	return p.statusTim.Start(100)
}

// stop quiesces the tasks before the objects they block on are deleted.
// The consumer and monitor poll with bounded waits, so they observe the
// quitting flag within one wait interval.
func (p *pipeline) stop() {
	p.quitting.Store(true)
	_ = p.statusTim.Delete(100)
	_ = p.producer.Delete()
	_ = p.consumer.Delete()
	_ = p.monitor.Delete()
	_ = p.dataQueue.Delete()
	_ = p.monitorSem.Delete()
}

// onStatusTimer runs on the timer worker: it only signals the monitor task,
// which does the printing in task context.
func (p *pipeline) onStatusTimer(t *osal.Timer) {
	pl := t.Context().(*pipeline)
	pl.expiries.Add(1)
	_ = pl.monitorSem.Give()
}

func (p *pipeline) producerTask(arg any) {
	var buf [readingSize]byte
	sensorID := uint16(1)
	osal.LogInfof("producer: starting sensor simulation")

	for {
		reading := sensorReading{
			Timestamp:   osal.TimeMS(),
			SensorID:    sensorID,
			Temperature: int16(200 + rand.Intn(100) - 50), // 20 °C ± 5 °C
			Humidity:    uint16(600 + rand.Intn(200) - 100),
		}
		reading.marshal(buf[:])

		err := p.dataQueue.Send(buf[:], 100)
		switch {
		case err == nil:
			n := p.produced.Add(1)
			osal.LogDebugf("producer: sent reading #%d (T=%.1f°C, H=%.1f%%)",
				n, float64(reading.Temperature)/10, float64(reading.Humidity)/10)
		case osal.IsStatus(err, osal.StatusQueueFull) || osal.IsStatus(err, osal.StatusQueueTimeout):
			p.dropped.Add(1)
			osal.LogWarningf("producer: queue full, dropping reading")
		default:
			osal.LogErrorf("producer: send failed: %v", err)
			return
		}

		_ = osal.DelayMS(p.cfg.Producer.PeriodMS)
	}
}

func (p *pipeline) consumerTask(arg any) {
	var buf [readingSize]byte
	var reading sensorReading
	osal.LogInfof("consumer: waiting for readings")

	for !p.quitting.Load() {
		err := p.dataQueue.Receive(buf[:], 500)
		if err != nil {
			if osal.IsStatus(err, osal.StatusQueueTimeout) {
				continue
			}
			osal.LogErrorf("consumer: receive failed: %v", err)
			return
		}
		reading.unmarshal(buf[:])
		p.processed.Add(1)
		osal.LogDebugf("consumer: sensor %d at t=%d: T=%.1f°C H=%.1f%%",
			reading.SensorID, reading.Timestamp,
			float64(reading.Temperature)/10, float64(reading.Humidity)/10)
	}
}

func (p *pipeline) monitorTask(arg any) {
	for !p.quitting.Load() {
		if err := p.monitorSem.TimedWait(500); err != nil {
			if osal.IsStatus(err, osal.StatusSemTimeout) {
				continue
			}
			return
		}
		osal.LogInfof("status: produced=%d processed=%d dropped=%d queued=%d expiries=%d",
			p.produced.Load(), p.processed.Load(), p.dropped.Load(),
			p.dataQueue.GetCount(), p.expiries.Load())
	}
}
