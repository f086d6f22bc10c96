package rabbitmq

import (
	"testing"

	"github.com/rabbitmq/amqp091-go"
)

type recordingAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func deliveryWith(ack amqp091.Acknowledger) Delivery {
	return Delivery{delivery: amqp091.Delivery{Acknowledger: ack}}
}

func TestDeliveryAck(t *testing.T) {
	ack := &recordingAcknowledger{}
	d := deliveryWith(ack)

	if err := d.Ack(); err != nil {
		t.Fatalf("Ack returned error: %v", err)
	}
	if !ack.acked {
		t.Error("expected broker acknowledgement")
	}
	if ack.nacked {
		t.Error("did not expect a negative acknowledgement")
	}
}

func TestDeliveryDropDoesNotRequeue(t *testing.T) {
	ack := &recordingAcknowledger{}
	d := deliveryWith(ack)

	if err := d.Drop(); err != nil {
		t.Fatalf("Drop returned error: %v", err)
	}
	if !ack.nacked {
		t.Error("expected a negative acknowledgement")
	}
	if ack.requeued {
		t.Error("dropped message must not be requeued")
	}
}

func TestDeliveryRequeue(t *testing.T) {
	ack := &recordingAcknowledger{}
	d := deliveryWith(ack)

	if err := d.Requeue(); err != nil {
		t.Fatalf("Requeue returned error: %v", err)
	}
	if !ack.nacked {
		t.Error("expected a negative acknowledgement")
	}
	if !ack.requeued {
		t.Error("expected the message to be requeued")
	}
}

func TestUninitializedDeliveryReturnsError(t *testing.T) {
	var d Delivery
	if err := d.Ack(); err == nil {
		t.Error("expected error acknowledging a zero-value delivery")
	}
}
