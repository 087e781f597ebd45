package config

import (
	"fmt"
)

type StorageKeyStruct struct{}

func NewStorageKeyStruct() *StorageKeyStruct {
	return &StorageKeyStruct{}
}

// ActivePaperKey returns the key holding the id of the paper currently in progress.
func (r *StorageKeyStruct) ActivePaperKey() string {
	return "active_paper"
}

// AnswersKey returns the key for a paper's mirrored answers blob.
func (r *StorageKeyStruct) AnswersKey(paperID string) string {
	return fmt.Sprintf("paper:%s:answers", paperID)
}

// StatusesKey returns the key for a paper's mirrored question-status blob.
func (r *StorageKeyStruct) StatusesKey(paperID string) string {
	return fmt.Sprintf("paper:%s:statuses", paperID)
}

// QuestionsKey returns the key for a paper's mirrored question snapshot.
func (r *StorageKeyStruct) QuestionsKey(paperID string) string {
	return fmt.Sprintf("paper:%s:questions", paperID)
}

// ViewedResultsKey returns the key for a paper's "has viewed detailed results" flag.
func (r *StorageKeyStruct) ViewedResultsKey(paperID string) string {
	return fmt.Sprintf("paper:%s:viewed_results", paperID)
}

var StorageKey = NewStorageKeyStruct()
