package server

import (
	"context"
	"encoding/json"
	"log"

	"inkwell/internal/observability"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated            = "post_created"
	EventPostUpdated            = "post_updated"
	EventPostDeleted            = "post_deleted"
	EventPostReactionUpdated    = "post_reaction_updated"
	EventCommentCreated         = "comment_created"
	EventCommentUpdated         = "comment_updated"
	EventCommentDeleted         = "comment_deleted"
	EventCommentReactionUpdated = "comment_reaction_updated"
	EventPresenceChanged        = "presence_changed"
)

func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	observability.RecordWebSocketEvent(eventType)
	message := string(eventJSON)
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
	}
}

func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	observability.RecordWebSocketEvent(eventType)
	message := string(eventJSON)
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(context.Background(), message); err != nil {
			log.Printf("failed to publish %s broadcast event: %v", eventType, err)
		}
	}
}

// publishPresenceEvent announces a reader coming online or going offline,
// with the current online count for live-audience display.
func (s *Server) publishPresenceEvent(userID uint, status string) {
	onlineCount := 0
	if s.hub != nil {
		onlineCount = len(s.hub.OnlineUserIDs(context.Background()))
	}
	s.publishBroadcastEvent(EventPresenceChanged, map[string]interface{}{
		"user_id":      userID,
		"status":       status,
		"online_count": onlineCount,
	})
}
