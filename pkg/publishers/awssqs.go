package publishers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// sqsClient defines the minimal subset of the SQS client used by the AWS sender.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// awsSQSSender delivers events to an SQS queue.
type awsSQSSender struct {
	queueURL string
	fifo     bool
	client   sqsClient
	log      Logger
}

// loadAWSConfig resolves an aws.Config for the sink region. Static keys win over
// the default credential chain.
func loadAWSConfig(ctx context.Context, sink Sink) (aws.Config, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(sink.Region)}
	if sink.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sink.AccessKeyID, sink.SecretAccessKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

func newAWSSQSSender(ctx context.Context, sink Sink, log Logger) (sender, error) {
	awsCfg, err := loadAWSConfig(ctx, sink)
	if err != nil {
		return nil, err
	}
	return newSQSSenderWithClient(sink.Target, sqs.NewFromConfig(awsCfg), log), nil
}

func newSQSSenderWithClient(queueURL string, client sqsClient, log Logger) *awsSQSSender {
	return &awsSQSSender{
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		client:   client,
		log:      ensureLogger(log),
	}
}

// Send publishes the event to the configured SQS queue. FIFO queues group
// messages by category and deduplicate on the article URL.
func (s *awsSQSSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	attrs := make(map[string]types.MessageAttributeValue, 3)
	for k, v := range evt.attributes() {
		if v == "" {
			continue
		}
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		input.MessageGroupId = aws.String(groupID(evt))
		input.MessageDeduplicationId = aws.String(dedupID(evt))
	}

	resp, err := s.client.SendMessage(ctx, input)
	if err != nil {
		s.log.ErrorObj("sqs publisher send failed", "publisher_sqs_error", map[string]any{
			"url":   evt.Article.URL,
			"error": err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs publisher delivered event", "publisher_sqs_delivery", map[string]any{
		"url":        evt.Article.URL,
		"message_id": aws.ToString(resp.MessageId),
	})
	return nil
}

func groupID(evt Event) string {
	if evt.Article.Category != "" {
		return evt.Article.Category
	}
	return evt.Source
}

// dedupID hashes the article URL; FIFO deduplication ids are capped at 128 characters.
func dedupID(evt Event) string {
	sum := sha256.Sum256([]byte(evt.Article.URL))
	return hex.EncodeToString(sum[:])
}
