package chat

import (
	"context"
	"fmt"

	"github.com/artmatsak/grace/internal/grace/llm"
)

// BackendResponsePrefix starts every system turn that reports a command
// result back to the model.
const BackendResponsePrefix = "Backend response: "

// Dispatcher executes an embedded command payload and returns its textual
// result. *commands.Router satisfies it.
type Dispatcher interface {
	Invoke(ctx context.Context, payload string) (string, error)
}

// CommandSession is a Session whose replies may embed one backend command.
// Each command result is fed back as a system turn and the model replies
// again without new user input, until a reply carries no command.
type CommandSession struct {
	*Session
	dispatcher Dispatcher
}

// NewCommandSession wires a Session to dispatcher.
func NewCommandSession(provider llm.Provider, dispatcher Dispatcher, prompt string, output OutputFunc, opts ...Option) *CommandSession {
	cs := &CommandSession{
		Session:    New(provider, prompt, output, opts...),
		dispatcher: dispatcher,
	}
	cs.cycle = cs.commandCycle
	return cs
}

func (cs *CommandSession) commandCycle(ctx context.Context) error {
	for chain := 0; ; chain++ {
		_, visible, err := cs.nextReply(ctx)
		if err != nil {
			return err
		}

		sp := SplitReply(visible)
		cs.emit(sp.Display)
		if sp.Unterminated {
			cs.log(ctx).Warn("unterminated command block in reply")
		}
		if !cs.IsEnded() {
			cs.append(ctx, llm.RoleAssistant, sp.Matched)
		}
		if !sp.HasCommand {
			return nil
		}

		if chain >= cs.cfg.maxChain {
			cs.log(ctx).Error("command chain limit reached", "max_chain", cs.cfg.maxChain)
			cs.end()
			return fmt.Errorf("%w: %d commands", ErrChainLimit, cs.cfg.maxChain)
		}

		result := cs.dispatch(ctx, sp.Payload)
		if cs.IsEnded() {
			return nil
		}
		cs.append(ctx, llm.RoleSystem, BackendResponsePrefix+result)
	}
}

// dispatch runs one command. Failures become the result text so the model
// can relay them.
func (cs *CommandSession) dispatch(ctx context.Context, payload string) string {
	log := cs.log(ctx)
	log.Debug("invoking backend command", "payload", payload)

	result, err := cs.dispatcher.Invoke(ctx, payload)
	if err != nil {
		log.Error("backend command failed", "error", err)
		return err.Error()
	}
	log.Debug("backend response", "result", result)
	return result
}
