// Package domain holds the bridge sensor model shared by the engine and the
// actors: raw sensor snapshots, characteristics, history entries and the
// messages exchanged between the poller, the accessories and the IO actors.
package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

type ActorRef actor.PID

// ActorRequestMixIn lets a request name who gets the response when it is
// forwarded, as set requests are on their way from the master to an
// accessory.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

// ActorResponseMixIn carries the outcome of a bridge write, a poll or a
// publish. A nil error is success.
type ActorResponseMixIn struct {
	ResponseError error
}

// Failed is the response part of a request that ended with err. A nil err
// gives a successful response.
func Failed(err error) ActorResponseMixIn {
	return ActorResponseMixIn{ResponseError: err}
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}
