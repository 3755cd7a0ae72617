package storage

import (
	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
)

func toScanModel(s domain.Scan) ScanModel {
	return ScanModel{
		ID:                 s.ID,
		Target:             s.Target,
		CreatedAt:          s.CreatedAt,
		EnrichmentComplete: s.EnrichmentComplete,
	}
}

func toScan(m ScanModel) domain.Scan {
	return domain.Scan{
		ID:                 m.ID,
		Target:             m.Target,
		CreatedAt:          m.CreatedAt,
		EnrichmentComplete: m.EnrichmentComplete,
	}
}

func toFindingModel(f domain.Finding) FindingModel {
	return FindingModel{
		ID:             f.ID,
		ScanID:         f.ScanID,
		Host:           f.Host,
		Port:           f.Port,
		ServiceName:    f.ServiceName,
		ServiceVersion: f.ServiceVersion,
		CVEID:          f.CVEID,
		Confidence:     string(f.Confidence),
	}
}

func toFinding(m FindingModel) domain.Finding {
	return domain.Finding{
		ID:             m.ID,
		ScanID:         m.ScanID,
		Host:           m.Host,
		Port:           m.Port,
		ServiceName:    m.ServiceName,
		ServiceVersion: m.ServiceVersion,
		CVEID:          m.CVEID,
		Confidence:     domain.Confidence(m.Confidence),
	}
}

func toVulnerabilityModel(r domain.VulnerabilityRecord) VulnerabilityModel {
	return VulnerabilityModel{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CVSSScore:   r.CVSSScore,
		Published:   r.Published,
	}
}

func toVulnerability(m VulnerabilityModel) domain.VulnerabilityRecord {
	return domain.VulnerabilityRecord{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		CVSSScore:   m.CVSSScore,
		Published:   m.Published,
	}
}
