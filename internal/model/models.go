// internal/model/models.go
package model

// Repository represents a GitHub repository together with its branches.
// Branches is empty until the aggregation service attaches them.
type Repository struct {
	Name     string   `json:"name"`
	Owner    *Owner   `json:"owner,omitempty"`
	Fork     bool     `json:"fork"`
	Branches []Branch `json:"branches"`
}

// Owner is the account that owns a repository.
type Owner struct {
	Login string `json:"login"`
}

// Branch is a single branch and the commit its head points at.
type Branch struct {
	Name   string `json:"name"`
	Commit Commit `json:"commit"`
}

type Commit struct {
	SHA string `json:"sha"`
}
