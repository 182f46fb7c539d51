package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmMulticastLimit is the FCM ceiling on tokens per multicast call.
const fcmMulticastLimit = 500

type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(credentialsFile string) (*FCMProvider, error) {
	ctx := context.Background()

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{
		client: client,
	}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	message := f.buildMessage(request)

	response, err := f.client.Send(ctx, message)
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	return &NotificationResponse{
		MessageID: response,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func (f *FCMProvider) SendMulticast(ctx context.Context, request *MulticastRequest) (*MulticastResult, error) {
	result := &MulticastResult{
		Results: make([]TokenResult, 0, len(request.Tokens)),
	}

	// FCM caps multicast at 500 tokens per call
	for start := 0; start < len(request.Tokens); start += fcmMulticastLimit {
		end := start + fcmMulticastLimit
		if end > len(request.Tokens) {
			end = len(request.Tokens)
		}
		chunk := request.Tokens[start:end]

		message := f.buildMulticastMessage(request, chunk)

		batchResponse, err := f.client.SendEachForMulticast(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("failed to send multicast: %w", err)
		}

		result.SuccessCount += batchResponse.SuccessCount
		result.FailureCount += batchResponse.FailureCount

		for i, response := range batchResponse.Responses {
			tokenResult := TokenResult{
				Token:   chunk[i],
				Success: response.Success,
			}
			if response.Success {
				tokenResult.MessageID = response.MessageID
			} else if response.Error != nil {
				tokenResult.Error = response.Error.Error()
				tokenResult.Unregistered = messaging.IsUnregistered(response.Error) ||
					messaging.IsInvalidArgument(response.Error)
			}
			result.Results = append(result.Results, tokenResult)
		}
	}

	return result, nil
}

func (f *FCMProvider) buildMessage(request *NotificationRequest) *messaging.Message {
	message := &messaging.Message{
		Token: request.Token,
		Data:  request.Data,
	}

	if request.Title != "" || request.Body != "" {
		message.Notification = &messaging.Notification{
			Title:    request.Title,
			Body:     request.Body,
			ImageURL: request.ImageURL,
		}
	}

	message.Android = f.androidConfig(request.Title, request.Body, request.Sound, request.ChannelID, request.Priority)
	message.APNS = f.apnsConfig(request.Title, request.Body, request.Sound, request.Category)

	return message
}

func (f *FCMProvider) buildMulticastMessage(request *MulticastRequest, tokens []string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   request.Data,
		Notification: &messaging.Notification{
			Title:    request.Title,
			Body:     request.Body,
			ImageURL: request.ImageURL,
		},
		Android: f.androidConfig(request.Title, request.Body, request.Sound, request.ChannelID, request.Priority),
		APNS:    f.apnsConfig(request.Title, request.Body, request.Sound, request.Category),
	}
}

func (f *FCMProvider) androidConfig(title, body, sound, channelID, priority string) *messaging.AndroidConfig {
	if priority == "" {
		priority = "high"
	}
	return &messaging.AndroidConfig{
		Priority: priority,
		Notification: &messaging.AndroidNotification{
			Title:     title,
			Body:      body,
			Sound:     sound,
			ChannelID: channelID,
		},
	}
}

func (f *FCMProvider) apnsConfig(title, body, sound, category string) *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Alert: &messaging.ApsAlert{
					Title: title,
					Body:  body,
				},
				Sound:    sound,
				Category: category,
			},
		},
	}
}
