package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bramblemart/internal/app/store/entity"
	"bramblemart/internal/app/worker/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaConsumer обрабатывает события магазина из Kafka топика
type KafkaConsumer struct {
	reader   *kafka.Reader
	orderSvc service.OrderProcessingServiceInterface
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	orderSvc service.OrderProcessingServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
		// Настройки для автоматического коммита offset
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		orderSvc: orderSvc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	log.Println("Starting Kafka consumer...")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	log.Println("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	log.Println("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}

				log.Printf("Error fetching message: %v", err)
				time.Sleep(time.Second)
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				log.Printf("Error processing message: %v", err)
				// Не коммитим offset при ошибке - сообщение будет повторно обработано
			} else {
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					log.Printf("Error committing message: %v", err)
				}
			}
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
// В топике перемешаны события товаров, оценок и заказов,
// сообщения без order_id пропускаются
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.OrderID == uuid.Nil {
		return nil
	}

	log.Printf("Received %s event for order %s (offset: %d, partition: %d)",
		event.EventType, event.OrderID, message.Offset, message.Partition)

	if err := c.orderSvc.ProcessOrderEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to process order event: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
