package readingbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/aduba/internal/domain/reading"
)

var sample = reading.New("r-1", "ADUBA-001", reading.Payload{Humidity: 60, CapacityStatus: reading.CapacityLow},
	time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))

func TestMQTTPublisher_PublishesOnDeviceTopic(t *testing.T) {
	client := &fakeMQTT{}
	pub := newMQTTPublisher(client, "aduba/readings/", 1)

	require.NoError(t, pub.Publish(context.Background(), "u-1", sample))
	require.Equal(t, "aduba/readings/ADUBA-001", client.topic)
	require.Equal(t, byte(1), client.qos)

	var msg Message
	require.NoError(t, json.Unmarshal(client.payload, &msg))
	require.Equal(t, "u-1", msg.UserID)
	require.Equal(t, sample, msg.Reading)

	require.NoError(t, pub.Close())
	require.True(t, client.disconnected)
}

func TestMQTTPublisher_ReportsBrokerError(t *testing.T) {
	pub := newMQTTPublisher(&fakeMQTT{err: errors.New("not connected")}, "", 0)

	err := pub.Publish(context.Background(), "u-1", sample)
	require.ErrorContains(t, err, "not connected")
}

func TestKafkaPublisher_KeysByDevice(t *testing.T) {
	w := &fakeWriter{}
	pub := &KafkaPublisher{writer: w}

	require.NoError(t, pub.Publish(context.Background(), "u-1", sample))
	require.Len(t, w.msgs, 1)
	require.Equal(t, "ADUBA-001", string(w.msgs[0].Key))
	require.Equal(t, "u-1", string(w.msgs[0].Headers[0].Value))
	require.Equal(t, "kafka", pub.Name())
}

func TestNewKafkaPublisher_RequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "aduba.readings"})
	require.Error(t, err)
	_, err = NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.Error(t, err)
}

type fakeMQTT struct {
	err          error
	topic        string
	qos          byte
	payload      []byte
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.topic = topic
	f.qos = qos
	f.payload = payload.([]byte)
	return doneToken{err: f.err}
}

func (f *fakeMQTT) Disconnect(uint) { f.disconnected = true }

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }
