package models

import (
	"time"

	"github.com/google/uuid"
)

// Relationship is the state between two profiles, expressed from the
// perspective of the profile asking.
type Relationship string

const (
	RelationshipSelf                  Relationship = "SELF"
	RelationshipNone                  Relationship = "NONE"
	RelationshipFriend                Relationship = "FRIEND"
	RelationshipOutgoingFriendRequest Relationship = "OUTGOING_FRIEND_REQUEST"
	RelationshipIncomingFriendRequest Relationship = "INCOMING_FRIEND_REQUEST"
)

// Inverse flips the direction of a directional relationship. Symmetric
// states (SELF, NONE, FRIEND) are their own inverse.
func (r Relationship) Inverse() Relationship {
	switch r {
	case RelationshipOutgoingFriendRequest:
		return RelationshipIncomingFriendRequest
	case RelationshipIncomingFriendRequest:
		return RelationshipOutgoingFriendRequest
	}
	return r
}

// EdgeType classifies a relationship edge in the graph.
type EdgeType string

const (
	// EdgeFriend is undirected: stored once in creation direction,
	// queried both ways.
	EdgeFriend EdgeType = "FRIEND"

	// EdgeFriendRequest is directed requester -> target.
	EdgeFriendRequest EdgeType = "FRIEND_REQUEST"
)

// RelationshipEdge is one edge of the social graph, kept in a dedicated
// adjacency table. The composite primary key plus the reverse index let
// the store traverse from either endpoint; at most one edge of either
// type exists per unordered pair.
type RelationshipEdge struct {
	FromProfileID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ToProfileID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Type          EdgeType  `gorm:"type:varchar(20);not null"`
	CreatedAt     time.Time

	FromProfile Profile `gorm:"foreignKey:FromProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ToProfile   Profile `gorm:"foreignKey:ToProfileID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (RelationshipEdge) TableName() string { return "relationship_edge" }

// ProfileShort is the projection returned by graph traversals.
type ProfileShort struct {
	ID       uuid.UUID `gorm:"type:uuid" json:"id"`
	Username string    `json:"username"`
}
