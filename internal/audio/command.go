package audio

// CommandKind identifies an instruction for the engine worker.
type CommandKind int

const (
	CmdPlay CommandKind = iota
	CmdStop
	CmdSetVolume
	CmdShutdown
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdStop:
		return "stop"
	case CmdSetVolume:
		return "set-volume"
	case CmdShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Command is one unit of work for the engine. Commands are copied into the
// mailbox and executed strictly in send order.
type Command struct {
	Kind  CommandKind
	Path  string  // CmdPlay
	Level float64 // CmdSetVolume, in [0,1]
	Seq   uint64  // CmdPlay, echoed back in events

	// Reply, when set, receives the outcome of the command once executed.
	// It must be buffered; the worker never blocks on it.
	Reply chan<- error
}

func Play(path string, seq uint64) Command {
	return Command{Kind: CmdPlay, Path: path, Seq: seq}
}

func Stop() Command {
	return Command{Kind: CmdStop}
}

func SetVolume(level float64) Command {
	return Command{Kind: CmdSetVolume, Level: level}
}

func Shutdown() Command {
	return Command{Kind: CmdShutdown}
}

// WithReply returns a copy of c that reports its outcome on ch.
func (c Command) WithReply(ch chan<- error) Command {
	c.Reply = ch
	return c
}

func (c Command) reply(err error) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- err:
	default:
	}
}

// EventKind identifies engine feedback.
type EventKind int

const (
	EventStarted EventKind = iota
	EventFinished
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports what happened to the Play command with the same Seq.
type Event struct {
	Kind EventKind
	Seq  uint64
	Path string
	Err  error // EventFailed only
}
