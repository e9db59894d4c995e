package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/kingrain94/table-qr-api/internal/config"
	"github.com/kingrain94/table-qr-api/internal/domain"
)

type MessageType string

const (
	MessageTypeScanEvent MessageType = "SCAN_EVENT"
	MessageTypeExport    MessageType = "EXPORT"
)

type Message struct {
	Type       MessageType        `json:"type"`
	TenantID   string             `json:"tenant_id"`
	ScanEvents []domain.ScanEvent `json:"scan_events,omitempty"`
	Export     *domain.ExportJob  `json:"export,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

type ReceivedMessage struct {
	Message       Message
	ReceiptHandle *string
}

// SQSAPI is the subset of *sqs.Client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSService struct {
	client         SQSAPI
	scanQueueURL   string
	exportQueueURL string
}

func NewSQSService(client SQSAPI, config *config.SQSConfig) *SQSService {
	return &SQSService{
		client:         client,
		scanQueueURL:   config.ScanQueueURL,
		exportQueueURL: config.ExportQueueURL,
	}
}

func (s *SQSService) ScanQueueURL() string {
	return s.scanQueueURL
}

func (s *SQSService) ExportQueueURL() string {
	return s.exportQueueURL
}

func (s *SQSService) SendScanEvent(ctx context.Context, event domain.ScanEvent) error {
	msg := Message{
		Type:       MessageTypeScanEvent,
		TenantID:   event.TenantID,
		ScanEvents: []domain.ScanEvent{event},
		Timestamp:  event.Timestamp,
	}

	return s.sendMessage(ctx, msg, s.scanQueueURL)
}

func (s *SQSService) SendExportJob(ctx context.Context, job *domain.ExportJob) error {
	msg := Message{
		Type:      MessageTypeExport,
		TenantID:  job.TenantID,
		Export:    job,
		Timestamp: job.RequestedAt,
	}

	return s.sendMessage(ctx, msg, s.exportQueueURL)
}

func (s *SQSService) sendMessage(ctx context.Context, msg Message, queueURL string) error {
	msgBody, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		MessageBody: aws.String(string(msgBody)),
		QueueUrl:    aws.String(queueURL),
	}

	_, err = s.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// ReceiveMessages long-polls queueURL. Bodies that fail to decode are returned
// with a zero Message so the caller can still delete them.
func (s *SQSService) ReceiveMessages(ctx context.Context, queueURL string, maxMessages int32, waitTimeSeconds int32) ([]ReceivedMessage, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: maxMessages,
		WaitTimeSeconds:     waitTimeSeconds,
	}

	output, err := s.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	var messages []ReceivedMessage
	for _, msg := range output.Messages {
		var message Message
		if msg.Body != nil {
			_ = json.Unmarshal([]byte(*msg.Body), &message)
		}
		messages = append(messages, ReceivedMessage{
			Message:       message,
			ReceiptHandle: msg.ReceiptHandle,
		})
	}

	return messages, nil
}

func (s *SQSService) DeleteMessage(ctx context.Context, queueURL string, receiptHandle *string) error {
	input := &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: receiptHandle,
	}

	_, err := s.client.DeleteMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}
