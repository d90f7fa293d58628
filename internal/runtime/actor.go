package runtime

// ActorRef is a lightweight handle to an actor plus the system it lives in,
// letting callers address an actor without holding the ActorSystem itself.
type ActorRef struct {
	System *ActorSystem
	ID     ActorID
}

// RefOf returns an ActorRef for actor within as.
func (as *ActorSystem) RefOf(actor *Actor) ActorRef {
	return ActorRef{System: as, ID: actor.ID}
}

// Tell sends a fire-and-forget message to the referenced actor.
func (ref ActorRef) Tell(msgType MessageType, payload interface{}) error {
	if ref.System == nil {
		return nil
	}

	return ref.System.SendMessage(0, ref.ID, msgType, payload)
}

// Acquire grants the referenced actor ownership of regionID.
func (ref ActorRef) Acquire(regionID uint64) error {
	return ref.System.Acquire(ref.ID, regionID)
}

// Release gives up the referenced actor's ownership of regionID.
func (ref ActorRef) Release(regionID uint64) error {
	return ref.System.Release(ref.ID, regionID)
}


