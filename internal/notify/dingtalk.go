package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inovacc/drivesign/internal/model"
)

const dingTalkAPIURL = "https://api.dingtalk.com"

// DingTalkSender pushes a one-to-one robot message to DingTalk users. Every
// send first exchanges the app key and secret for an app access token.
type DingTalkSender struct {
	cfg  model.ChannelConfig
	opts options
}

// NewDingTalkSender creates a DingTalk sender.
func NewDingTalkSender(cfg model.ChannelConfig, opts ...Option) Sender {
	return &DingTalkSender{cfg: cfg, opts: newOptions(opts)}
}

// Name returns the sender name.
func (s *DingTalkSender) Name() string {
	return string(model.ChannelDingTalk)
}

// Send delivers msg to the configured user IDs.
func (s *DingTalkSender) Send(ctx context.Context, msg *Message) error {
	if err := requireFields(s.Name(), s.cfg, "dingtalk_app_key", "dingtalk_app_secret", "dingtalk_user_id"); err != nil {
		return err
	}

	appKey := s.cfg.Get("dingtalk_app_key")

	token, err := s.accessToken(ctx, appKey, s.cfg.Get("dingtalk_app_secret"))
	if err != nil {
		return err
	}

	param, err := json.Marshal(map[string]string{"content": msg.Body})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	payload := map[string]any{
		"robotCode": appKey,
		"userIds":   model.SplitTokens(s.cfg.Get("dingtalk_user_id")),
		"msgKey":    "sampleText",
		"msgParam":  string(param),
	}

	base := s.opts.baseURL(s.cfg, "dingtalk_endpoint", dingTalkAPIURL)

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), base+"/v1.0/robot/oToMessages/batchSend", payload,
		map[string]string{"x-acs-dingtalk-access-token": token})
	if err != nil {
		return err
	}

	if !resp.ok() {
		return rejected(s.Name(), resp, "batch send rejected")
	}

	var result struct {
		ProcessQueryKey   string   `json:"processQueryKey"`
		InvalidStaffIDs   []string `json:"invalidStaffIdList"`
		FlowControlledIDs []string `json:"flowControlledStaffIdList"`
	}

	if err := resp.decode(&result); err == nil && len(result.InvalidStaffIDs) > 0 {
		return rejected(s.Name(), resp, fmt.Sprintf("invalid user IDs: %v", result.InvalidStaffIDs))
	}

	return nil
}

// accessToken fetches an app access token for the robot API.
func (s *DingTalkSender) accessToken(ctx context.Context, appKey, appSecret string) (string, error) {
	base := s.opts.baseURL(s.cfg, "dingtalk_endpoint", dingTalkAPIURL)

	resp, err := postJSON(ctx, s.opts.client(defaultTimeout), s.Name(), base+"/v1.0/oauth2/accessToken", map[string]string{
		"appKey":    appKey,
		"appSecret": appSecret,
	}, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		AccessToken string `json:"accessToken"`
		ExpireIn    int    `json:"expireIn"`
		Code        string `json:"code"`
		Message     string `json:"message"`
	}

	if err := resp.decode(&result); err != nil || !resp.ok() || result.AccessToken == "" {
		return "", rejected(s.Name(), resp, "failed to get access token")
	}

	return result.AccessToken, nil
}
