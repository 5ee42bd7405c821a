package simulator

import (
	"encoding/json"
	"fmt"
)

// Publisher common/mqtt.Client 满足该接口
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTSink 把读数发布到 healthmon/{device_id}/reading，由 API 端的 MQTT 订阅入库
type MQTTSink struct {
	pub Publisher
	qos byte
}

func NewMQTTSink(pub Publisher, qos byte) *MQTTSink {
	return &MQTTSink{pub: pub, qos: qos}
}

func ReadingTopic(deviceID string) string {
	return "healthmon/" + deviceID + "/reading"
}

func (s *MQTTSink) PublishReading(rd Reading) error {
	if rd.DeviceID == "" {
		return fmt.Errorf("device_id is required for MQTT publishing")
	}
	payload, err := json.Marshal(rd)
	if err != nil {
		return err
	}
	return s.pub.Publish(ReadingTopic(rd.DeviceID), s.qos, false, payload)
}
