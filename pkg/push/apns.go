package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	tokenProvider := &token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	}

	client := apns2.NewTokenClient(tokenProvider)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{
		client: client,
		topic:  topic,
	}, nil
}

func (a *APNSProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	notification := a.buildNotification(request)

	response, err := a.client.PushWithContext(ctx, notification)
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	if response.Sent() {
		return &NotificationResponse{
			MessageID: response.ApnsID,
			Success:   true,
			Token:     request.Token,
		}, nil
	}

	return &NotificationResponse{
		Success: false,
		Error:   response.Reason,
		Token:   request.Token,
	}, fmt.Errorf("APNS error: %s", response.Reason)
}

// SendMulticast delivers to each token individually; APNs has no true
// multicast endpoint. Gateway-level errors abort the loop, per-token
// rejections are recorded and the loop continues.
func (a *APNSProvider) SendMulticast(ctx context.Context, request *MulticastRequest) (*MulticastResult, error) {
	result := &MulticastResult{
		Results: make([]TokenResult, 0, len(request.Tokens)),
	}

	for _, deviceToken := range request.Tokens {
		notification := a.buildNotification(&NotificationRequest{
			Token:    deviceToken,
			Title:    request.Title,
			Body:     request.Body,
			Data:     request.Data,
			Sound:    request.Sound,
			Category: request.Category,
		})

		response, err := a.client.PushWithContext(ctx, notification)
		if err != nil {
			return nil, fmt.Errorf("failed to send to APNS: %w", err)
		}

		tokenResult := TokenResult{Token: deviceToken}
		if response.Sent() {
			tokenResult.Success = true
			tokenResult.MessageID = response.ApnsID
			result.SuccessCount++
		} else {
			tokenResult.Error = response.Reason
			tokenResult.Unregistered = response.Reason == apns2.ReasonUnregistered ||
				response.Reason == apns2.ReasonBadDeviceToken ||
				response.Reason == apns2.ReasonDeviceTokenNotForTopic
			result.FailureCount++
		}
		result.Results = append(result.Results, tokenResult)
	}

	return result, nil
}

func (a *APNSProvider) buildNotification(request *NotificationRequest) *apns2.Notification {
	p := payload.NewPayload().
		AlertTitle(request.Title).
		AlertBody(request.Body)

	if request.Sound != "" {
		p = p.Sound(request.Sound)
	}
	if request.Category != "" {
		p = p.Category(request.Category)
	}

	for k, v := range request.Data {
		p = p.Custom(k, v)
	}

	return &apns2.Notification{
		DeviceToken: request.Token,
		Topic:       a.topic,
		Payload:     p,
	}
}
