package room

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Message is one broadcast room line. Seq is the room's sequence number,
// assigned by the server in arrival order.
type Message struct {
	Seq    uint32 `json:"seq"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// joinReply is the server's answer to a join: the incumbent member list
// and the sequence number to poll from.
type joinReply struct {
	Members []string `json:"members"`
	LastSeq uint32   `json:"last_seq"`
}

// Client talks to a roomd server.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a Client for the roomd at base.
func NewClient(base string) *Client {
	return &Client{Base: base, HTTP: &http.Client{Timeout: 60 * time.Second}}
}

// Join enters the room and returns the current member list (not including
// us) and the sequence number after which new messages will appear.
func (c *Client) Join(room, nick string) ([]string, uint32, error) {
	var out joinReply
	err := c.post("/rooms/"+url.PathEscape(room)+"/join", struct {
		Nick string `json:"nick"`
	}{Nick: nick}, &out)
	if err != nil {
		return nil, 0, err
	}
	return out.Members, out.LastSeq, nil
}

// Leave exits the room. The server broadcasts the departure to the
// remaining members.
func (c *Client) Leave(room, nick string) error {
	return c.post("/rooms/"+url.PathEscape(room)+"/leave", struct {
		Nick string `json:"nick"`
	}{Nick: nick}, nil)
}

// Send broadcasts one string to every member of the room, ourselves
// included.
func (c *Client) Send(room, sender, body string) error {
	return c.post("/rooms/"+url.PathEscape(room)+"/messages", Message{
		Sender: sender,
		Body:   body,
	}, nil)
}

// Poll long-polls for messages with sequence numbers greater than after.
// It returns an empty slice when the server's wait window elapses with
// nothing new.
func (c *Client) Poll(ctx context.Context, room string, after uint32) ([]Message, error) {
	u := c.Base + "/rooms/" + url.PathEscape(room) + "/messages?after=" + strconv.FormatUint(uint64(after), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("room get %s: %s", u, resp.Status)
	}
	var msgs []Message
	return msgs, json.NewDecoder(resp.Body).Decode(&msgs)
}

func (c *Client) post(path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("room post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
