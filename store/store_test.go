package store

type testDoc struct {
	ID    string `json:"id" bson:"id"`
	Owner string `json:"user_id" bson:"user_id"`
	Title string `json:"title" bson:"title"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}
