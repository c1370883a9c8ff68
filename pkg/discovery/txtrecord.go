package discovery

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeNodeTXT creates TXT records for node advertisement.
func EncodeNodeTXT(info *NodeInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	services := info.Services
	if len(services) == 0 {
		services = []uuid.UUID{DefaultServiceID}
	}
	txt[TXTKeyServices] = EncodeServiceIDs(services)

	// Optional fields
	if info.NodeName != "" {
		txt[TXTKeyNodeName] = info.NodeName
	}
	if info.NodeID != uuid.Nil {
		txt[TXTKeyNodeID] = info.NodeID.String()
	}

	return txt
}

// DecodeNodeTXT parses TXT records from a node advertisement.
// A missing svc key yields nil services: metadata not yet known.
func DecodeNodeTXT(txt TXTRecordMap) (*NodeInfo, error) {
	info := &NodeInfo{
		NodeName: txt[TXTKeyNodeName],
	}

	if s, ok := txt[TXTKeyServices]; ok {
		ids, err := ParseServiceIDs(s)
		if err != nil {
			return nil, err
		}
		info.Services = ids
	}

	if s, ok := txt[TXTKeyNodeID]; ok && s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid node id %q", ErrInvalidTXTRecord, s)
		}
		info.NodeID = id
	}

	return info, nil
}

// EncodeServiceIDs joins service ids into a comma-separated string.
func EncodeServiceIDs(ids []uuid.UUID) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strings.Join(strs, ",")
}

// ParseServiceIDs parses a comma-separated service id list.
// An empty string is an empty, non-nil list.
func ParseServiceIDs(s string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, strings.Count(s, ",")+1)
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid service id %q", ErrInvalidTXTRecord, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
