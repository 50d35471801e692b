package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsClient defines the minimal subset of the SNS client used by the AWS sender.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// awsSNSSender delivers events to an SNS topic.
type awsSNSSender struct {
	topicARN string
	fifo     bool
	client   snsClient
	log      Logger
}

func newAWSSNSSender(ctx context.Context, sink Sink, log Logger) (sender, error) {
	awsCfg, err := loadAWSConfig(ctx, sink)
	if err != nil {
		return nil, err
	}
	return newSNSSenderWithClient(sink.Target, sns.NewFromConfig(awsCfg), log), nil
}

func newSNSSenderWithClient(topicARN string, client snsClient, log Logger) *awsSNSSender {
	return &awsSNSSender{
		topicARN: topicARN,
		fifo:     strings.HasSuffix(topicARN, ".fifo"),
		client:   client,
		log:      ensureLogger(log),
	}
}

// Send publishes the event to the configured SNS topic with the article title as subject.
func (s *awsSNSSender) Send(ctx context.Context, evt Event) error {
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

	input := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(payload)),
		MessageAttributes: attrs,
	}
	if subject := snsSubject(evt.Article.Title); subject != "" {
		input.Subject = aws.String(subject)
	}
	if s.fifo {
		input.MessageGroupId = aws.String(groupID(evt))
		input.MessageDeduplicationId = aws.String(dedupID(evt))
	}

	resp, err := s.client.Publish(ctx, input)
	if err != nil {
		s.log.ErrorObj("sns publisher send failed", "publisher_sns_error", map[string]any{
			"url":   evt.Article.URL,
			"error": err.Error(),
		})
		return fmt.Errorf("send message to sns: %w", err)
	}
	s.log.DebugObj("sns publisher delivered event", "publisher_sns_delivery", map[string]any{
		"url":        evt.Article.URL,
		"message_id": aws.ToString(resp.MessageId),
	})
	return nil
}

// snsSubject keeps the title within SNS limits: one line, at most 100 characters.
func snsSubject(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if r := []rune(title); len(r) > 100 {
		title = string(r[:100])
	}
	return title
}
