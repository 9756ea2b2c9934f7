package chat

import (
	"fmt"
	"testing"

	"github.com/Joeboy77/chat-app/internal/database"
)

// TestRecentMessages_Empty メッセージなしでも空のスライスが返る
func TestRecentMessages_Empty(t *testing.T) {
	testDB := setupTestDB(t)
	defer cleanupTestDB(testDB)
	svc := NewService(testDB)

	history, err := svc.RecentMessages()
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if history == nil {
		t.Fatal("Expected non-nil history")
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d messages", len(history))
	}
}

// TestRecentMessages_ChronologicalOrder 履歴は古い順で返る
func TestRecentMessages_ChronologicalOrder(t *testing.T) {
	testDB := setupTestDB(t)
	defer cleanupTestDB(testDB)
	svc := NewService(testDB)
	alice := join(t, svc, "alice")

	for i := 1; i <= 3; i++ {
		if _, err := svc.CreateText(alice, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("CreateText failed: %v", err)
		}
	}

	history, err := svc.RecentMessages()
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(history))
	}
	for i := 1; i <= 3; i++ {
		if history[i-1].Content != fmt.Sprintf("msg %d", i) {
			t.Errorf("Expected oldest-first order, position %d has %q", i-1, history[i-1].Content)
		}
	}
}

// TestRecentMessages_CapsAtLimit 51件以上あっても最新50件のみ返る
func TestRecentMessages_CapsAtLimit(t *testing.T) {
	testDB := setupTestDB(t)
	defer cleanupTestDB(testDB)
	svc := NewService(testDB)
	alice := join(t, svc, "alice")

	for i := 1; i <= historyLimit+5; i++ {
		if _, err := svc.CreateText(alice, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("CreateText failed: %v", err)
		}
	}

	history, err := svc.RecentMessages()
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(history) != historyLimit {
		t.Fatalf("Expected %d messages, got %d", historyLimit, len(history))
	}

	// 最も古い5件は切り落とされているはず
	if history[0].Content != "msg 6" {
		t.Errorf("Expected history to start at 'msg 6', got %q", history[0].Content)
	}
	if history[len(history)-1].Content != fmt.Sprintf("msg %d", historyLimit+5) {
		t.Errorf("Expected newest message last, got %q", history[len(history)-1].Content)
	}
}

// TestRecentMessages_IncludesSoftDeleted 削除済みメッセージも履歴に含まれる
func TestRecentMessages_IncludesSoftDeleted(t *testing.T) {
	testDB := setupTestDB(t)
	defer cleanupTestDB(testDB)
	svc := NewService(testDB)
	alice := join(t, svc, "alice")

	msg, err := svc.CreateText(alice, "soon gone")
	if err != nil {
		t.Fatalf("CreateText failed: %v", err)
	}
	if _, err := svc.Delete(alice, msg.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	history, err := svc.RecentMessages()
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected deleted message in history, got %d messages", len(history))
	}
	if !history[0].IsDeleted {
		t.Error("Expected isDeleted=true in history")
	}
}

// TestRecentMessages_AttachesParentsAndReactions 返信の親とリアクションがまとめて付与される
func TestRecentMessages_AttachesParentsAndReactions(t *testing.T) {
	testDB := setupTestDB(t)
	defer cleanupTestDB(testDB)
	svc := NewService(testDB)
	alice := join(t, svc, "alice")
	bob := join(t, svc, "bob")

	parent, err := svc.CreateText(alice, "hello")
	if err != nil {
		t.Fatalf("CreateText failed: %v", err)
	}
	if _, err := svc.CreateReply(bob, "hi", parent.ID); err != nil {
		t.Fatalf("CreateReply failed: %v", err)
	}
	if _, err := svc.ToggleReaction(bob, parent.ID, "👍"); err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}

	history, err := svc.RecentMessages()
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}

	first, second := history[0], history[1]

	if len(first.Reactions) != 1 {
		t.Fatalf("Expected 1 reaction on first message, got %d", len(first.Reactions))
	}
	if first.Reactions[0].Emoji != "👍" || first.Reactions[0].Username != "bob" {
		t.Errorf("Unexpected reaction: %+v", first.Reactions[0])
	}

	if second.ParentMessage == nil {
		t.Fatal("Expected resolved parentMessage on reply")
	}
	if second.ParentMessage.ID != parent.ID {
		t.Errorf("Expected parentMessage.id %d, got %d", parent.ID, second.ParentMessage.ID)
	}
	if second.ParentMessage.Username != "alice" {
		t.Errorf("Expected parentMessage.username 'alice', got %q", second.ParentMessage.Username)
	}
	if second.Reactions == nil || len(second.Reactions) != 0 {
		t.Errorf("Expected empty non-nil reactions on reply, got %#v", second.Reactions)
	}
}

// TestRecentMessages_DegradesWithoutReactions リアクションの一括取得に失敗しても履歴は空リアクションで返る
func TestRecentMessages_DegradesWithoutReactions(t *testing.T) {
	testDB := setupTestDB(t)
	defer cleanupTestDB(testDB)
	svc := NewService(testDB)
	alice := join(t, svc, "alice")
	bob := join(t, svc, "bob")

	parent, err := svc.CreateText(alice, "hello")
	if err != nil {
		t.Fatalf("CreateText failed: %v", err)
	}
	if _, err := svc.CreateReply(bob, "hi", parent.ID); err != nil {
		t.Fatalf("CreateReply failed: %v", err)
	}
	if _, err := svc.ToggleReaction(bob, parent.ID, "👍"); err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}

	// リアクションテーブルが読めない状況を作る
	if _, err := testDB.Exec("DROP TABLE reactions"); err != nil {
		t.Fatalf("Failed to drop reactions table: %v", err)
	}
	defer database.EnsureSchema(testDB)

	history, err := svc.RecentMessages()
	if err != nil {
		t.Fatalf("Expected history despite reaction load failure, got error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}
	for i, msg := range history {
		if msg.Reactions == nil || len(msg.Reactions) != 0 {
			t.Errorf("Expected empty non-nil reactions at position %d, got %#v", i, msg.Reactions)
		}
	}

	// 親の解決はリアクションとは独立して動き続ける
	if history[1].ParentMessage == nil {
		t.Fatal("Expected parentMessage to survive reaction load failure")
	}
	if history[1].ParentMessage.ID != parent.ID {
		t.Errorf("Expected parentMessage.id %d, got %d", parent.ID, history[1].ParentMessage.ID)
	}
}
