package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewService_RequiresSecret(t *testing.T) {
	if _, err := NewService("", 0); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	svc, err := NewService("segredo", 0)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := svc.HashPassword("senha-forte")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "senha-forte" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !svc.CheckPassword("senha-forte", hash) {
		t.Error("correct password rejected")
	}
	if svc.CheckPassword("senha-errada", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewService("segredo", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	token, err := svc.GenerateToken(42, "fazendeiro")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.Username != "fazendeiro" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	a, _ := NewService("segredo-a", time.Hour)
	b, _ := NewService("segredo-b", time.Hour)
	token, err := a.GenerateToken(1, "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, _ := NewService("segredo", time.Hour)
	claims := jwt.MapClaims{
		"user_id":  float64(1),
		"username": "x",
		"exp":      time.Now().Add(-time.Hour).Unix(),
		"iat":      time.Now().Add(-2 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("segredo"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(signed); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := NewService("segredo", time.Hour)
	if _, err := svc.ValidateToken("nem.um.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
