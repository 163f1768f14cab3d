// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	mail "gopkg.in/gomail.v2"
)

type notifier interface {
	notify(a alert) error
}

type mailer struct {
	usr  string
	pwd  string
	srv  string
	port int
	tgts []string
}

// mailerFromEnv returns nil when the mail credentials are incomplete.
func mailerFromEnv() notifier {
	m := &mailer{
		usr:  os.Getenv("MAIL_USERNAME"),
		pwd:  os.Getenv("MAIL_PASSWORD"),
		srv:  os.Getenv("MAIL_SERVER"),
		port: atoi(os.Getenv("MAIL_PORT")),
		tgts: targets(os.Getenv("MAIL_TGTS")),
	}
	if m.usr == "" || m.pwd == "" || m.srv == "" || m.port == 0 || len(m.tgts) == 0 {
		log.Printf("mail alerts disabled: missing credentials")
		return nil
	}
	return m
}

func (m *mailer) message(a alert) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.usr)
	msg.SetHeader("Bcc", m.tgts...)
	msg.SetHeader("Subject", a.subject())
	msg.SetBody("text/plain", a.body())
	return msg
}

func (m *mailer) notify(a alert) error {
	dial := mail.NewDialer(m.srv, m.port, m.usr, m.pwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err := dial.DialAndSend(m.message(a))
	if err != nil {
		return fmt.Errorf("could not send mail alert: %w", err)
	}
	return nil
}

type smser struct {
	endpoint string
	client   *http.Client
}

// smserFromEnv returns nil when no SMS end-point is configured.
func smserFromEnv() notifier {
	ep := os.Getenv("SMS_ENDPOINT")
	if ep == "" {
		log.Printf("sms alerts disabled: no end-point")
		return nil
	}
	return &smser{endpoint: ep, client: http.DefaultClient}
}

func (s *smser) notify(a alert) error {
	var msg struct {
		Action string `json:"action"`
		Data   struct {
			All bool   `json:"all"`
			Msg string `json:"message"`
		} `json:"data"`
	}
	msg.Action = "send"
	msg.Data.All = true
	msg.Data.Msg = fmt.Sprintf("[daphne-mon]: alert board=%q %s", a.Board, a.summary())

	data := new(bytes.Buffer)
	err := json.NewEncoder(data).Encode(msg)
	if err != nil {
		return fmt.Errorf("could not encode sms to json: %w", err)
	}
	resp, err := s.client.Post(s.endpoint, "application/json", data)
	if err != nil {
		return fmt.Errorf("could not POST sms alert: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		Msg string `json:"status"`
	}
	err = json.NewDecoder(resp.Body).Decode(&status)
	if err != nil {
		return fmt.Errorf("could not decode sms reply: %w", err)
	}
	if status.Msg != "success" {
		return fmt.Errorf("could not send sms: status=%q", status.Msg)
	}
	return nil
}

func targets(s string) []string {
	var tgts []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		tgts = append(tgts, v)
	}
	return tgts
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
