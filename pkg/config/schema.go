package config

// Schema is the JSON schema for validating configuration files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "storage": {
            "type": "object",
            "properties": {
                "key_id": {
                    "type": "string",
                    "description": "Access key id, account id or user name"
                },
                "secret": {
                    "type": "string"
                },
                "endpoint": {
                    "type": "string",
                    "pattern": "^[a-zA-Z][a-zA-Z0-9+.-]*://"
                },
                "container": {
                    "type": "string",
                    "description": "Bucket holding every object addressed by the client"
                },
                "type": {
                    "type": "string",
                    "enum": ["s3", "minio", "backblaze", "ssh", "local"]
                },
                "region": {
                    "type": "string"
                },
                "use_path_style": {
                    "type": "boolean"
                },
                "insecure_skip_verify": {
                    "type": "boolean"
                },
                "missing_file_policy": {
                    "type": "string",
                    "enum": ["skip", "fail"]
                },
                "known_hosts": {
                    "type": "string"
                }
            }
        },
        "log_level": {
            "type": "string",
            "enum": ["debug", "info", "warn", "error"]
        },
        "log_format": {
            "type": "string",
            "enum": ["json", "console"]
        },
        "log_file": {
            "type": "string"
        },
        "max_concurrent_transfers": {
            "type": "integer",
            "minimum": 1
        }
    },
    "required": ["storage"]
}`
