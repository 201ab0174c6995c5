// Package audio plays the Chip-8 buzzer tone.
package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 440
	DefaultVolume     = 0.2

	bytesPerSample = 4
)

// Beeper is a chip8.Buzzer playing a square wave while the sound timer runs
type Beeper struct {
	sampleRate int
	wave       *SquareWave
	ctx        *oto.Context
	player     *oto.Player
	mutex      sync.Mutex
}

func NewBeeper() *Beeper {
	return NewBeeperWithSampleRate(DefaultSampleRate)
}

func NewBeeperWithSampleRate(sampleRate int) *Beeper {
	return &Beeper{
		sampleRate: sampleRate,
		wave:       NewSquareWave(sampleRate, DefaultFrequency, DefaultVolume),
	}
}

// Boot implements chip8.Buzzer. It opens the audio device and starts a silent stream.
func (b *Beeper) Boot() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player != nil {
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   b.sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	b.ctx = ctx
	b.player = ctx.NewPlayer(b.wave)
	b.player.Play()

	return nil
}

// Play implements chip8.Buzzer.
func (b *Beeper) Play() {
	b.wave.on.Store(true)
}

// Stop implements chip8.Buzzer.
func (b *Beeper) Stop() {
	b.wave.on.Store(false)
}

func (b *Beeper) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil

	return err
}

// SquareWave is an endless mono float32 stream, silent unless switched on
type SquareWave struct {
	on         atomic.Bool
	halfPeriod int
	amplitude  float32
	phase      int
}

func NewSquareWave(sampleRate, frequency int, volume float32) *SquareWave {
	return &SquareWave{
		halfPeriod: max(sampleRate/(2*frequency), 1),
		amplitude:  volume,
	}
}

func (w *SquareWave) Read(p []byte) (int, error) {
	on := w.on.Load()
	n := len(p) / bytesPerSample * bytesPerSample

	for i := 0; i < n; i += bytesPerSample {
		var sample float32
		if on {
			sample = w.amplitude
			if w.phase >= w.halfPeriod {
				sample = -w.amplitude
			}
		}
		w.phase = (w.phase + 1) % (2 * w.halfPeriod)

		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(sample))
	}

	return n, nil
}
