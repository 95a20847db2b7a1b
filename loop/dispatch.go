package loop

import (
	"github.com/nimbusmq/core/packet"
)

// dispatch routes one complete inbound frame to its handler, mirroring
// the upper-nibble switch of the original source's
// _mosquitto_packet_handle: PINGREQ/PINGRESP, PUBACK/PUBCOMP treated
// identically, PUBLISH, PUBREC, PUBREL, CONNACK, SUBACK, UNSUBACK, with
// an unrecognised command rejected outright.
func (l *Loop) dispatch(h packet.Header, payload []byte) error {
	l.sess.MarkIncoming(l.now())

	switch h.Command {
	case packet.PINGREQ:
		return l.handlePingreq()
	case packet.PINGRESP:
		return nil
	case packet.PUBACK:
		return l.handlePuback(payload)
	case packet.PUBCOMP:
		return l.handlePubcomp(payload)
	case packet.PUBLISH:
		return l.handlePublish(h, payload)
	case packet.PUBREC:
		return l.handlePubrec(payload)
	case packet.PUBREL:
		return l.handlePubrel(payload)
	case packet.CONNACK:
		return l.handleConnack(payload)
	case packet.SUBACK:
		return l.handleSuback(payload)
	case packet.UNSUBACK:
		return l.handleUnsuback(payload)
	default:
		return packet.ErrUnknownCommand
	}
}

func (l *Loop) handlePingreq() error {
	l.enqueue(packet.EncodePingresp())
	return nil
}

func (l *Loop) handlePuback(payload []byte) error {
	mid, err := packet.DecodePuback(payload)
	if err != nil {
		return err
	}
	if msg, ok := l.qosMachine.HandlePuback(mid); ok {
		l.notifyPublish(msg.MessageID)
	}
	return nil
}

func (l *Loop) handlePubcomp(payload []byte) error {
	mid, err := packet.DecodePubcomp(payload)
	if err != nil {
		return err
	}
	if msg, ok := l.qosMachine.HandlePubcomp(mid); ok {
		l.notifyPublish(msg.MessageID)
	}
	return nil
}

func (l *Loop) handlePubrec(payload []byte) error {
	mid, err := packet.DecodePubrec(payload)
	if err != nil {
		return err
	}
	pubrel, ok, err := l.qosMachine.HandlePubrec(mid)
	if err != nil {
		return err
	}
	if ok {
		l.enqueue(pubrel)
	}
	return nil
}

func (l *Loop) handlePubrel(payload []byte) error {
	mid, err := packet.DecodePubrel(payload)
	if err != nil {
		return err
	}
	msg, pubcomp, err := l.qosMachine.HandlePubrel(mid)
	if err != nil {
		return err
	}
	l.enqueue(pubcomp)
	if msg != nil && l.handlers.OnMessage != nil {
		l.handlers.OnMessage(msg)
	}
	return nil
}

func (l *Loop) handlePublish(h packet.Header, payload []byte) error {
	msg, err := packet.DecodePublish(h, payload)
	if err != nil {
		return err
	}
	msg.Direction = packet.Inbound
	decision, err := l.qosMachine.HandleInboundPublish(msg)
	if err != nil {
		return err
	}
	if decision.Ack != nil {
		l.enqueue(decision.Ack)
	}
	if decision.Deliver && l.handlers.OnMessage != nil {
		l.handlers.OnMessage(msg)
	}
	return nil
}

func (l *Loop) handleConnack(payload []byte) error {
	sessionPresent, code, err := packet.DecodeConnack(payload)
	if err != nil {
		return err
	}
	l.connected = code == packet.ConnAccepted
	if l.handlers.OnConnect != nil {
		l.handlers.OnConnect(connectResult(sessionPresent, code))
	}
	return nil
}

func (l *Loop) handleSuback(payload []byte) error {
	mid, grantedQoS, err := packet.DecodeSuback(payload)
	if err != nil {
		return err
	}
	if l.handlers.OnSubscribe != nil {
		var q packet.QoS
		if len(grantedQoS) > 0 {
			q = grantedQoS[0]
		}
		l.handlers.OnSubscribe(mid, q)
	}
	return nil
}

func (l *Loop) handleUnsuback(payload []byte) error {
	mid, err := packet.DecodeUnsuback(payload)
	if err != nil {
		return err
	}
	if l.handlers.OnUnsubscribe != nil {
		l.handlers.OnUnsubscribe(mid)
	}
	return nil
}
