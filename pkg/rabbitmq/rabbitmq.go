package rabbitmq

import (
	"encoding/json"

	"github.com/streadway/amqp"
)

// InitRabbitMQ 初始化RabbitMQ连接
func InitRabbitMQ(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DeclareQueue 创建持久化队列，有就不用创建（幂等）
func DeclareQueue(conn *amqp.Connection, name string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	// 执行完毕后，这个临时的Channel就被关闭了
	defer ch.Close()
	_, err = ch.QueueDeclare(
		name,  // name
		true,  // durable: RabbitMQ重启后队列仍在
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}

// Publisher 把消息序列化成JSON投递到默认交换机
type Publisher struct {
	conn *amqp.Connection
}

func NewPublisher(conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn}
}

// PublishJSON 每条消息单独开一个channel，消息之间互不影响
func (p *Publisher) PublishJSON(queue string, v interface{}) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ch.Publish(
		"",    // exchange默认交换机
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // 确保消息持久化
		})
}
