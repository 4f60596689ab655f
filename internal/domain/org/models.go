package org

import "time"

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	HODID       string    `json:"hodId,omitempty"`
	HODName     string    `json:"hodName,omitempty"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Stats struct {
	DepartmentID string `json:"departmentId"`
	MemberCount  int    `json:"memberCount"`
	OnLeaveToday int    `json:"onLeaveToday"`
	PendingCount int    `json:"pendingCount"`
}
