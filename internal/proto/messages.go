package proto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrBadRequest is returned when a Struct request lacks a field or holds a
// value of the wrong shape.
var ErrBadRequest = errors.New("bad request")

type LoginRequest struct {
	Username      string
	Verifier      []byte
	TwoFactorCode string
}

type DepotKeyRequest struct {
	AppID   uint32
	DepotID uint32
}

type RequestCodeRequest struct {
	AppID      uint32
	DepotID    uint32
	ManifestID uint64
}

type ManifestRequest struct {
	DepotID     uint32
	ManifestID  uint64
	RequestCode uint64
}

type FileURLRequest struct {
	DepotID    uint32
	ContentKey string
}

func (r *LoginRequest) Struct() *structpb.Struct {
	return fields(map[string]string{
		"username":        r.Username,
		"verifier":        base64.StdEncoding.EncodeToString(r.Verifier),
		"two_factor_code": r.TwoFactorCode,
	})
}

func ParseLoginRequest(s *structpb.Struct) (*LoginRequest, error) {
	r := &LoginRequest{}
	var err error
	if r.Username, err = str(s, "username", true); err != nil {
		return nil, err
	}
	v, err := str(s, "verifier", true)
	if err != nil {
		return nil, err
	}
	if r.Verifier, err = base64.StdEncoding.DecodeString(v); err != nil {
		return nil, fmt.Errorf("%w: verifier: %v", ErrBadRequest, err)
	}
	if r.TwoFactorCode, err = str(s, "two_factor_code", false); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *DepotKeyRequest) Struct() *structpb.Struct {
	return fields(map[string]string{
		"app_id":   strconv.FormatUint(uint64(r.AppID), 10),
		"depot_id": strconv.FormatUint(uint64(r.DepotID), 10),
	})
}

func ParseDepotKeyRequest(s *structpb.Struct) (*DepotKeyRequest, error) {
	app, err := uintField(s, "app_id", 32)
	if err != nil {
		return nil, err
	}
	depot, err := uintField(s, "depot_id", 32)
	if err != nil {
		return nil, err
	}
	return &DepotKeyRequest{AppID: uint32(app), DepotID: uint32(depot)}, nil
}

func (r *RequestCodeRequest) Struct() *structpb.Struct {
	return fields(map[string]string{
		"app_id":      strconv.FormatUint(uint64(r.AppID), 10),
		"depot_id":    strconv.FormatUint(uint64(r.DepotID), 10),
		"manifest_id": strconv.FormatUint(r.ManifestID, 10),
	})
}

func ParseRequestCodeRequest(s *structpb.Struct) (*RequestCodeRequest, error) {
	app, err := uintField(s, "app_id", 32)
	if err != nil {
		return nil, err
	}
	depot, err := uintField(s, "depot_id", 32)
	if err != nil {
		return nil, err
	}
	manifest, err := uintField(s, "manifest_id", 64)
	if err != nil {
		return nil, err
	}
	return &RequestCodeRequest{AppID: uint32(app), DepotID: uint32(depot), ManifestID: manifest}, nil
}

func (r *ManifestRequest) Struct() *structpb.Struct {
	return fields(map[string]string{
		"depot_id":     strconv.FormatUint(uint64(r.DepotID), 10),
		"manifest_id":  strconv.FormatUint(r.ManifestID, 10),
		"request_code": strconv.FormatUint(r.RequestCode, 10),
	})
}

func ParseManifestRequest(s *structpb.Struct) (*ManifestRequest, error) {
	depot, err := uintField(s, "depot_id", 32)
	if err != nil {
		return nil, err
	}
	manifest, err := uintField(s, "manifest_id", 64)
	if err != nil {
		return nil, err
	}
	code, err := uintField(s, "request_code", 64)
	if err != nil {
		return nil, err
	}
	return &ManifestRequest{DepotID: uint32(depot), ManifestID: manifest, RequestCode: code}, nil
}

func (r *FileURLRequest) Struct() *structpb.Struct {
	return fields(map[string]string{
		"depot_id":    strconv.FormatUint(uint64(r.DepotID), 10),
		"content_key": r.ContentKey,
	})
}

func ParseFileURLRequest(s *structpb.Struct) (*FileURLRequest, error) {
	depot, err := uintField(s, "depot_id", 32)
	if err != nil {
		return nil, err
	}
	key, err := str(s, "content_key", true)
	if err != nil {
		return nil, err
	}
	return &FileURLRequest{DepotID: uint32(depot), ContentKey: key}, nil
}

func fields(m map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(m))}
	for k, v := range m {
		s.Fields[k] = structpb.NewStringValue(v)
	}
	return s
}

func str(s *structpb.Struct, name string, required bool) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: missing %s", ErrBadRequest, name)
		}
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadRequest, name)
	}
	if required && sv.StringValue == "" {
		return "", fmt.Errorf("%w: empty %s", ErrBadRequest, name)
	}
	return sv.StringValue, nil
}

// uintField reads a decimal string; numbers are accepted too when they fit
// in a float64 without loss.
func uintField(s *structpb.Struct, name string, bits int) (uint64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		n, err := strconv.ParseUint(k.StringValue, 10, bits)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrBadRequest, name, k.StringValue)
		}
		return n, nil
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f < 0 || f != float64(uint64(f)) || f > 1<<53 || (bits == 32 && f > 1<<32-1) {
			return 0, fmt.Errorf("%w: %s %v", ErrBadRequest, name, f)
		}
		return uint64(f), nil
	default:
		return 0, fmt.Errorf("%w: %s has unexpected type", ErrBadRequest, name)
	}
}
