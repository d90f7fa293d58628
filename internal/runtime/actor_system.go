// Actor ownership for trace regions.
//
// A trace region is owned by exactly one actor at a time. GC inside a
// region is stop-the-region: the owning actor runs mark/sweep/merge with no
// suspension points, while every other actor keeps running against its own
// regions undisturbed. ActorSystem exists to make that ownership explicit
// and checkable rather than conventional.
package runtime

import (
	"fmt"
	"sync"
)

// ActorID identifies an actor within an ActorSystem.
type ActorID uint64

// MessageType distinguishes payloads delivered through Tell/SendMessage.
type MessageType int

const (
	// MessageRegionEvent carries a notification about a region the
	// recipient actor owns, e.g. a merge or release completing.
	MessageRegionEvent MessageType = iota
	// MessageUser is an application-defined payload, untouched by the
	// runtime.
	MessageUser
)

// Message is a single entry in an actor's inbox.
type Message struct {
	From    ActorID
	Type    MessageType
	Payload interface{}
}

// Actor is a minimal unit of ownership: it has an identity and an inbox,
// and nothing else. There is no scheduler, no supervision tree, no
// mailbox priority queue; callers that need those build them on top.
type Actor struct {
	ID    ActorID
	Name  string
	inbox chan Message
}

// ActorSystem spawns actors and tracks which actor owns which region.
type ActorSystem struct {
	mu      sync.Mutex
	nextID  ActorID
	actors  map[ActorID]*Actor
	owners  map[uint64]ActorID // region id -> owning actor
	inboxCap int
}

// NewActorSystem creates an empty actor system. inboxCap bounds each
// actor's mailbox; SendMessage blocks once it fills.
func NewActorSystem(inboxCap int) *ActorSystem {
	if inboxCap <= 0 {
		inboxCap = 16
	}

	return &ActorSystem{
		actors:   make(map[ActorID]*Actor),
		owners:   make(map[uint64]ActorID),
		inboxCap: inboxCap,
	}
}

// Spawn creates a new actor with the given name.
func (as *ActorSystem) Spawn(name string) *Actor {
	as.mu.Lock()
	defer as.mu.Unlock()

	as.nextID++
	a := &Actor{
		ID:    as.nextID,
		Name:  name,
		inbox: make(chan Message, as.inboxCap),
	}
	as.actors[a.ID] = a

	return a
}

// Actors returns every actor currently registered, in spawn order.
func (as *ActorSystem) Actors() []*Actor {
	as.mu.Lock()
	defer as.mu.Unlock()

	out := make([]*Actor, 0, len(as.actors))
	for id := ActorID(1); id <= as.nextID; id++ {
		if a, ok := as.actors[id]; ok {
			out = append(out, a)
		}
	}

	return out
}

// Acquire grants actor ownership of regionID. It fails if another actor
// already owns that region; re-acquiring by the current owner is a no-op.
func (as *ActorSystem) Acquire(actor ActorID, regionID uint64) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if _, ok := as.actors[actor]; !ok {
		return fmt.Errorf("runtime: unknown actor %d", actor)
	}

	if owner, held := as.owners[regionID]; held {
		if owner == actor {
			return nil
		}

		return fmt.Errorf("runtime: region %d already owned by actor %d", regionID, owner)
	}

	as.owners[regionID] = actor

	return nil
}

// Release gives up actor's ownership of regionID. It fails if actor does
// not currently own the region.
func (as *ActorSystem) Release(actor ActorID, regionID uint64) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	owner, held := as.owners[regionID]
	if !held {
		return fmt.Errorf("runtime: region %d has no owner", regionID)
	}

	if owner != actor {
		return fmt.Errorf("runtime: region %d is owned by actor %d, not %d", regionID, owner, actor)
	}

	delete(as.owners, regionID)

	return nil
}

// Transfer moves ownership of regionID from one actor directly to another
// without an intervening Release, the way a cown handoff would.
func (as *ActorSystem) Transfer(regionID uint64, from, to ActorID) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	owner, held := as.owners[regionID]
	if !held || owner != from {
		return fmt.Errorf("runtime: region %d is not owned by actor %d", regionID, from)
	}

	if _, ok := as.actors[to]; !ok {
		return fmt.Errorf("runtime: unknown actor %d", to)
	}

	as.owners[regionID] = to

	return nil
}

// OwnerOf reports which actor currently owns regionID, if any.
func (as *ActorSystem) OwnerOf(regionID uint64) (ActorID, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	owner, held := as.owners[regionID]

	return owner, held
}

// SendMessage delivers msg to to's inbox. It blocks if the inbox is full.
func (as *ActorSystem) SendMessage(from, to ActorID, msgType MessageType, payload interface{}) error {
	as.mu.Lock()
	target, ok := as.actors[to]
	as.mu.Unlock()

	if !ok {
		return fmt.Errorf("runtime: unknown actor %d", to)
	}

	target.inbox <- Message{From: from, Type: msgType, Payload: payload}

	return nil
}

// Receive blocks until a message arrives in actor's inbox.
func (a *Actor) Receive() Message {
	return <-a.inbox
}

// TryReceive returns the next message without blocking, and false if the
// inbox is empty.
func (a *Actor) TryReceive() (Message, bool) {
	select {
	case msg := <-a.inbox:
		return msg, true
	default:
		return Message{}, false
	}
}
