package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

// frameKind 入站帧类型
type frameKind int

const (
	frameDrop frameKind = iota
	frameError
	frameAck
	frameNotification
)

func (k frameKind) String() string {
	switch k {
	case frameError:
		return "error"
	case frameAck:
		return "ack"
	case frameNotification:
		return "notification"
	default:
		return "drop"
	}
}

// frame 分类后的入站帧
type frame struct {
	kind           frameKind
	subscriptionID int64
	data           json.RawMessage
	metadata       json.RawMessage
	err            *CallError

	// 仅 frameDrop 使用
	dropReason string
	dropErr    *CallError
}

// decodePayload 文本帧与二进制帧统一解码为 UTF-8 文本
func decodePayload(messageType int, payload []byte) ([]byte, *CallError) {
	switch messageType {
	case websocket.TextMessage, websocket.BinaryMessage:
	default:
		return nil, NewCallError(CodeUnexpectedFrameType, fmt.Sprintf("Unexpected data type %d", messageType))
	}
	if !utf8.Valid(payload) {
		return nil, NewCallError(CodeUnexpectedFrameType, "Unexpected data type: payload is not valid UTF-8")
	}
	return payload, nil
}

// classifyFrame 按顶层字段区分错误帧、确认帧与通知帧
//
// 判定顺序：error → result（订阅确认）→ params.result（通知）。
// 通知负载本身若包含名为 result 的顶层字段会被误判为确认帧，这是线协议本身的歧义。
func classifyFrame(payload []byte, withMetadata bool) frame {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil || top == nil {
		return dropFrame(dropMalformed, NewCallError(CodeMalformedFrame, fmt.Sprintf("Unexpected payload: %s", payload)))
	}

	if raw, ok := top["error"]; ok {
		return frame{kind: frameError, err: decodeStreamError(raw)}
	}

	if raw, ok := top["result"]; ok {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return dropFrame(dropBadAck, NewCallError(CodeMalformedFrame, fmt.Sprintf("Unexpected subscription id: %s", raw)))
		}
		return frame{kind: frameAck, subscriptionID: id}
	}

	var n struct {
		Params *struct {
			Result json.RawMessage `json:"result"`
		} `json:"params"`
	}
	if err := json.Unmarshal(payload, &n); err != nil || n.Params == nil || isNullOrEmpty(n.Params.Result) {
		return dropFrame(dropNoResult, NewCallError(CodeMalformedFrame, fmt.Sprintf("Unexpected payload: %s", payload)))
	}

	result := n.Params.Result
	var inner map[string]json.RawMessage
	isObject := json.Unmarshal(result, &inner) == nil && inner != nil

	if withMetadata {
		f := frame{kind: frameNotification, data: result}
		if isObject && !isNullOrEmpty(inner["metadata"]) {
			f.metadata = inner["metadata"]
		}
		return f
	}

	data := json.RawMessage("null")
	if isObject {
		if d, ok := inner["data"]; ok {
			data = d
		}
	}
	return frame{kind: frameNotification, data: data}
}

// decodeStreamError 解析错误帧中的 {code, message}
func decodeStreamError(raw json.RawMessage) *CallError {
	var e struct {
		Code    *int   `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &e); err != nil || e.Code == nil {
		return NewCallError(CodeMalformedFrame, string(bytes.TrimSpace(raw)))
	}
	return NewCallError(*e.Code, e.Message)
}

func dropFrame(reason string, err *CallError) frame {
	return frame{kind: frameDrop, dropReason: reason, dropErr: err}
}
