package chip8

// Buzzer sounds while the sound timer is running.
// The console calls Play once when the timer starts and Stop once when it runs out.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

// DummyBuzzer records the buzzer state without making any sound
type DummyBuzzer struct {
	IsPlaying bool
	// Number of times Play was called
	Beeps uint
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.IsPlaying = true
	b.Beeps++
}

// Stop implements Buzzer
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
}
