package event

import (
	"fmt"
	messagebus "github.com/vardius/message-bus"
	"vincit.fi/image-dataset/api"
	"vincit.fi/image-dataset/api/apitype"
	"vincit.fi/image-dataset/common/logger"
)

type Broker struct {
	bus messagebus.MessageBus

	api.Sender
}

func InitBus(queueSize int) *Broker {
	return &Broker{
		bus: messagebus.New(queueSize),
	}
}

// Subscribe registers fn for topic. The arguments fn accepts must match what is
// published to the topic.
func (s *Broker) Subscribe(topic api.Topic, fn interface{}) error {
	if err := s.bus.Subscribe(string(topic), fn); err != nil {
		logger.Error.Printf("Could not subscribe to '%s': %s", topic, err)
		return err
	}
	return nil
}

func (s *Broker) Unsubscribe(topic api.Topic, fn interface{}) error {
	return s.bus.Unsubscribe(string(topic), fn)
}

func (s *Broker) Close(topic api.Topic) {
	s.bus.Close(string(topic))
}

func (s *Broker) SendToTopic(topic api.Topic) {
	logger.Trace.Printf("Sending to '%s'", topic)
	s.bus.Publish(string(topic))
}

func (s *Broker) SendCommandToTopic(topic api.Topic, command apitype.Command) {
	logger.Trace.Printf("Sending command to '%s'", topic)
	s.bus.Publish(string(topic), command)
}

func (s *Broker) SendError(message string, err error) {
	formattedMessage := ""
	if err != nil {
		formattedMessage = fmt.Sprintf("%s\n%s", message, err.Error())
	} else {
		formattedMessage = message
	}
	logger.Error.Printf("Error: %s", formattedMessage)
	s.SendCommandToTopic(api.ShowError, &api.ErrorCommand{Message: formattedMessage})
}
