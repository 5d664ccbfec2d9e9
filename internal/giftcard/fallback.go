package giftcard

// ExtractCachedArtifact recovers a previously delivered redemption artifact
// from persisted metadata, for when the live supplier path is unavailable.
// Precedence: the order's own metadata cache first, then the latest
// transaction's metadata. Never touches the network.
//
// latestTx may be nil. Returns ErrRedemptionNotAvailable when neither source
// holds a redemption code; callers must surface that instead of fabricating
// an artifact with an empty code.
func ExtractCachedArtifact(order *Order, latestTx *Transaction) (*RedemptionArtifact, error) {
	if artifact, ok := ArtifactFromMetadata(order.Metadata); ok {
		return artifact, nil
	}
	if latestTx != nil {
		if artifact, ok := ArtifactFromMetadata(latestTx.Metadata); ok {
			return artifact, nil
		}
	}
	return nil, ErrRedemptionNotAvailable
}
