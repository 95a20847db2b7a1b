package qos

import "errors"

// ErrUnexpectedState names the case of an ack arriving for a message that
// exists in the in-flight store but is not waiting in the state that ack
// advances, e.g. a PUBREC for a message still waiting on PUBACK. No Machine
// method returns it: HandlePuback, HandlePubrec and HandlePubcomp ignore
// such an ack and report ok=false.
var ErrUnexpectedState = errors.New("qos: message in unexpected handshake state")
