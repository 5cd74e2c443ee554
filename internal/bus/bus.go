package bus

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Bus is an in-process topic-keyed publish/subscribe fan-out. Publishing is
// fire-and-forget: with no subscriber on a topic the payload is simply
// dropped, and a slow subscriber is disconnected rather than allowed to
// stall delivery.
type Bus struct {
	topics      map[string]map[*Subscriber]struct{}
	subscribe   chan subscription
	unsubscribe chan subscription
	detach      chan *Subscriber
	publish     chan Envelope
}

type Subscriber struct {
	bus  *Bus
	send chan Envelope

	// closed is touched only by the Run goroutine.
	closed bool
}

type subscription struct {
	topic string
	sub   *Subscriber
}

// Envelope is a published payload tagged with its topic, so a subscriber
// multiplexing several topics over one connection can tell them apart.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"data"`
}

func New() *Bus {
	return &Bus{
		topics:      make(map[string]map[*Subscriber]struct{}),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		detach:      make(chan *Subscriber),
		publish:     make(chan Envelope, 64),
	}
}

func (b *Bus) Run() {
	for {
		select {
		case sub := <-b.subscribe:
			// A subscriber disconnected for falling behind has a closed
			// channel and can never be delivered to again.
			if sub.sub.closed {
				continue
			}
			set, ok := b.topics[sub.topic]
			if !ok {
				set = make(map[*Subscriber]struct{})
				b.topics[sub.topic] = set
			}
			set[sub.sub] = struct{}{}
		case sub := <-b.unsubscribe:
			b.drop(sub.topic, sub.sub)
		case sub := <-b.detach:
			b.remove(sub)
		case env := <-b.publish:
			b.deliver(env)
		}
	}
}

// NewSubscriber returns a subscriber with a bounded delivery buffer. It must
// be released with Detach once its consumer is gone.
func (b *Bus) NewSubscriber() *Subscriber {
	return &Subscriber{
		bus:  b,
		send: make(chan Envelope, 32),
	}
}

// Publish encodes payload as JSON and fans it out to the topic's current
// subscribers. It never blocks the caller: when the bus is saturated the
// update is dropped, and the durable state will be re-read on the next poll.
func (b *Bus) Publish(topic string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("bus: encode payload for %s: %v", topic, err)
		return
	}

	select {
	case b.publish <- Envelope{Topic: topic, Payload: encoded}:
	default:
		log.Printf("bus: dropping publish to %s: bus saturated", topic)
	}
}

func (s *Subscriber) Subscribe(topic string) {
	s.bus.subscribe <- subscription{topic: topic, sub: s}
}

func (s *Subscriber) Unsubscribe(topic string) {
	s.bus.unsubscribe <- subscription{topic: topic, sub: s}
}

// Detach removes the subscriber from every topic and closes its channel.
func (s *Subscriber) Detach() {
	s.bus.detach <- s
}

// C is the delivery channel. It is closed on Detach.
func (s *Subscriber) C() <-chan Envelope {
	return s.send
}

func (b *Bus) deliver(env Envelope) {
	set, ok := b.topics[env.Topic]
	if !ok {
		return
	}

	for sub := range set {
		select {
		case sub.send <- env:
		default:
			// Slow subscriber: disconnect it everywhere rather than
			// stall or queue unboundedly.
			b.remove(sub)
		}
	}
}

func (b *Bus) drop(topic string, sub *Subscriber) {
	set, ok := b.topics[topic]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.topics, topic)
	}
}

// remove takes the subscriber out of every topic and closes its channel
// exactly once.
func (b *Bus) remove(sub *Subscriber) {
	for topic := range b.topics {
		b.drop(topic, sub)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.send)
	}
}

// Topic name contract. These strings are wire-exact: compatible clients
// subscribe by building the same names.

// ConversationTopic carries raw messages flowing from sender to recipient's
// subscribers.
func ConversationTopic(senderID, recipientID int64) string {
	return fmt.Sprintf("topic/messages/%d/%d", senderID, recipientID)
}

// ContactListTopic carries ContactSummary updates for ownerID's contact list.
func ContactListTopic(ownerID int64) string {
	return fmt.Sprintf("topic/messages/%d", ownerID)
}

// ContactAddedTopic carries ContactSummary payloads when a contact is added
// or a contact's profile changes.
func ContactAddedTopic(ownerID int64) string {
	return fmt.Sprintf("topic/contacts/%d", ownerID)
}

// ContactRemovedTopic carries the identity of a contact removed from
// ownerID's list.
func ContactRemovedTopic(ownerID int64) string {
	return fmt.Sprintf("topic/contacts/remove/%d", ownerID)
}

// AllowedSubscriber reports whether userID may subscribe to topic. Every
// topic family addresses exactly one listener: the trailing id, except for
// directed conversation topics where the second id is the listening party.
func AllowedSubscriber(topic string, userID int64) bool {
	parts := strings.Split(topic, "/")
	switch {
	case len(parts) == 4 && parts[0] == "topic" && parts[1] == "messages":
		return parseID(parts[3]) == userID
	case len(parts) == 3 && parts[0] == "topic" && parts[1] == "messages":
		return parseID(parts[2]) == userID
	case len(parts) == 3 && parts[0] == "topic" && parts[1] == "contacts":
		return parseID(parts[2]) == userID
	case len(parts) == 4 && parts[0] == "topic" && parts[1] == "contacts" && parts[2] == "remove":
		return parseID(parts[3]) == userID
	default:
		return false
	}
}

func parseID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1
	}
	return id
}
