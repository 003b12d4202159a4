package messaging

import (
	"log"

	"github.com/matst80/slask-filterset/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AmqpPublisher announces saved filter sets to other portal services.
type AmqpPublisher struct {
	prefix     string
	connection *amqp.Connection
}

type SavedEvent struct {
	UUID              string           `json:"uuid"`
	Id                string           `json:"@id"`
	Title             string           `json:"title"`
	SearchType        types.SearchType `json:"search_type"`
	DerivedFromPreset string           `json:"derived_from_preset_filterset,omitempty"`
	IsPreset          bool             `json:"is_preset"`
	Blocks            int              `json:"blocks"`
}

func NewAmqpPublisher(url, prefix string) (*AmqpPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err = DefineTopic(ch, prefix, FilterSetSaved); err != nil {
		conn.Close()
		return nil, err
	}
	log.Printf("Publishing saved filter sets to %s", getName(prefix, FilterSetSaved))
	return &AmqpPublisher{prefix: prefix, connection: conn}, nil
}

func NewSavedEvent(fs *types.FilterSet) SavedEvent {
	return SavedEvent{
		UUID:              fs.UUID,
		Id:                fs.Id,
		Title:             fs.Title,
		SearchType:        fs.SearchType,
		DerivedFromPreset: fs.DerivedFromPreset,
		IsPreset:          fs.IsPreset,
		Blocks:            len(fs.Blocks),
	}
}

func (p *AmqpPublisher) PublishSaved(fs *types.FilterSet) error {
	return SendChange(p.connection, p.prefix, FilterSetSaved, NewSavedEvent(fs))
}

func (p *AmqpPublisher) Close() error {
	return p.connection.Close()
}
