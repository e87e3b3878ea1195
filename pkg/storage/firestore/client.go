package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/mccedddy/EczApp/pkg"
	"github.com/mccedddy/EczApp/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

// Images are sub-collections of Users: users/{uid}/images/{autoId}
func (c *Client) Images(userId string) *Collection[types.ImageRecord] {
	return &Collection[types.ImageRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userId).Collection(shared.CollectionImages),
		ToFirestore:   ImageToFirestore,
		FromFirestore: FirestoreToImage,
	}
}

// SkinAnalyses are sub-collections of Users: users/{uid}/skinAnalysis/{isoTimestamp}
// Keyed by timestamp so repeated runs accumulate history.
func (c *Client) SkinAnalyses(userId string) *Collection[types.AnalysisRecord] {
	return &Collection[types.AnalysisRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userId).Collection(shared.CollectionSkinAnalysis),
		ToFirestore:   AnalysisToFirestore,
		FromFirestore: FirestoreToAnalysis,
	}
}
