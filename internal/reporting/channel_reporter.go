package reporting

// ChannelReporter forwards updates on a buffered channel, dropping them
// when the consumer falls behind. It feeds the TUI.
type ChannelReporter struct {
	ch chan Update
}

// NewChannelReporter creates a ChannelReporter with the given buffer.
func NewChannelReporter(buffer int) *ChannelReporter {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelReporter{ch: make(chan Update, buffer)}
}

func (c *ChannelReporter) Report(update Update) {
	select {
	case c.ch <- update:
	default:
	}
}

// Updates returns the receiving side.
func (c *ChannelReporter) Updates() <-chan Update {
	return c.ch
}
