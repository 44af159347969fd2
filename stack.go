package autowire

import (
	"context"
)

// stackKey finds the construction state of one Injector on a context.
type stackKey struct {
	owner *Injector
}

// constructionState is one frame of a construction chain. The root frame belongs to a top-level
// Create call and pins the configuration snapshot; every type under construction adds a child frame
// on a derived context. Frames are never modified, so concurrent Create calls started from the same
// context each see only their own chain.
type constructionState struct {
	prefs  Preferences
	class  TypeName
	parent *constructionState
	depth  int
}

// enterCallTree returns the construction state carried on ctx, creating it for a top-level call.
func (i *Injector) enterCallTree(ctx context.Context) (context.Context, *constructionState) {
	key := stackKey{owner: i}
	if state, ok := ctx.Value(key).(*constructionState); ok {
		return ctx, state
	}
	state := &constructionState{
		prefs: i.config.Snapshot(),
	}
	return context.WithValue(ctx, key, state), state
}

// push records that class is being constructed below state. The returned context and state must be
// used for everything the construction of class does. The frame is gone once the caller returns.
func (i *Injector) push(ctx context.Context, state *constructionState, class TypeName) (context.Context, *constructionState, error) {
	for frame := state; frame.parent != nil; frame = frame.parent {
		if frame.class == class {
			return ctx, state, &DependencyError{
				Kind:     KindCircularDependency,
				Message:  "circular dependency detected",
				TypeName: class,
				Stack:    append(state.stack(), class),
			}
		}
	}
	child := &constructionState{
		prefs:  state.prefs,
		class:  class,
		parent: state,
		depth:  state.depth + 1,
	}
	return context.WithValue(ctx, stackKey{owner: i}, child), child, nil
}

// stack returns the types under construction, outermost first.
func (s *constructionState) stack() []TypeName {
	result := make([]TypeName, s.depth, s.depth+1)
	for frame := s; frame.parent != nil; frame = frame.parent {
		result[frame.depth-1] = frame.class
	}
	return result
}
