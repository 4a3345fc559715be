package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals plaintext")
	}

	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrInvalidCredentials", err)
	}
	if err := CheckPassword("not-a-hash", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(bad hash) = %v, want ErrInvalidCredentials", err)
	}
}

func TestHashPassword_OutOfRangeCostUsesDefault(t *testing.T) {
	hash, err := HashPassword("pw", 0)
	if err != nil {
		t.Fatal(err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatal(err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}
