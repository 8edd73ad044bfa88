package notify

// RefKind discriminates what a notification's reference id points at.
type RefKind int

const (
	RefTask RefKind = iota
	RefComment
)

// Ref is the internal tagged form of a notification reference. The wire
// format keeps a flat reference_id; the tag exists so code never has to
// guess what the id means.
type Ref struct {
	Kind RefKind
	ID   string
}

// TaskRef builds a reference to a task.
func TaskRef(id string) Ref {
	return Ref{Kind: RefTask, ID: id}
}

// CommentRef builds a reference to a comment.
func CommentRef(id string) Ref {
	return Ref{Kind: RefComment, ID: id}
}
