package util

import "errors"

var (
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	ErrPackNotLoaded      = errors.New("game pack not loaded")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotComplete = errors.New("session not complete")
	ErrReplayNotAvailable = errors.New("replay only available after victory")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCharacterNotFound  = errors.New("character not found")
	ErrResultNotFound     = errors.New("result not found")
)
